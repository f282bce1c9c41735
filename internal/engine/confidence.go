package engine

import "github.com/SaicoBys/airbnb-manager/internal/models"

// Confidence factors, applied additively to a 0.5 base and clamped to
// [0, 1]. Solution-type penalties (date shift, split, add-on nights) are
// applied by the search strategies on top of this room score.
const (
	confidenceBase = 0.5

	busyRoomBonus   = 0.2 // >10 stays in the trailing 90 days
	activeRoomBonus = 0.1 // >5 stays in the trailing 90 days

	cleanRoomBonus      = 0.2
	occupiedRoomPenalty = 0.3

	packageBonus = 0.1

	dateShiftPenaltyPerDay = 0.1
	splitStayPenalty       = 0.2
	addOnNightPenalty      = 0.1
)

// scoreRoom maps room features to a [0, 1] suitability score.
func scoreRoom(room models.Room, recentStays int, hasPackage bool) float64 {
	confidence := confidenceBase

	if recentStays > 10 {
		confidence += busyRoomBonus
	} else if recentStays > 5 {
		confidence += activeRoomBonus
	}

	switch room.Status {
	case models.RoomClean:
		confidence += cleanRoomBonus
	case models.RoomOccupied:
		confidence -= occupiedRoomPenalty
	}

	if hasPackage {
		confidence += packageBonus
	}

	return clampConfidence(confidence)
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
