package engine

import (
	"testing"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestScoreRoom(t *testing.T) {
	clean := models.Room{ID: 1, Status: models.RoomClean}
	occupied := models.Room{ID: 2, Status: models.RoomOccupied}
	maintenance := models.Room{ID: 3, Status: models.RoomMaintenance}

	tests := []struct {
		name        string
		room        models.Room
		recentStays int
		hasPackage  bool
		want        float64
	}{
		{"clean room baseline", clean, 0, false, 0.7},
		{"clean room with package", clean, 0, true, 0.8},
		{"active history", clean, 6, false, 0.8},
		{"busy history clamps at one", clean, 11, true, 1.0},
		{"occupied room penalized", occupied, 0, false, 0.2},
		{"neutral status", maintenance, 0, false, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreRoom(tt.room, tt.recentStays, tt.hasPackage)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(-0.3))
	assert.Equal(t, 1.0, clampConfidence(1.7))
	assert.InDelta(t, 0.55, clampConfidence(0.55), 0.001)
}
