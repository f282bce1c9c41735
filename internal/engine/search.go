package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/domain"
	"github.com/SaicoBys/airbnb-manager/internal/metrics"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
)

// Per-strategy result caps keep the combinatorial strategies bounded.
const (
	maxRoomsPerOffset = 3
	maxRoomsPerHalf   = 3
	maxAddOnRooms     = 2
	maxMovesPerStay   = 2
)

// Engine runs the availability search strategies over the stay ledger.
// Every call is a stateless computation against the repository; the engine
// holds no mutable state of its own.
type Engine struct {
	repo   domain.Repository
	cache  domain.SpendingCache
	logger *zerolog.Logger
}

func New(repo domain.Repository, cache domain.SpendingCache, logger *zerolog.Logger) *Engine {
	return &Engine{repo: repo, cache: cache, logger: logger}
}

// searchContext carries the catalogue snapshot shared by all strategies of
// one search call.
type searchContext struct {
	rooms    []models.Room
	roomByID map[int64]models.Room
	recent   map[int64]int
	packaged map[int64]bool
}

func (sc *searchContext) score(room models.Room) float64 {
	return scoreRoom(room, sc.recent[room.ID], sc.packaged[room.ID])
}

// FindSolutions runs the strategies in their fixed order, merges every
// result, ranks them and truncates to the bounded result count. It always
// returns a (possibly empty) list for a valid request.
func (e *Engine) FindSolutions(ctx context.Context, req models.BookingRequest) ([]models.Solution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	metrics.IncSearch()
	defer func() {
		metrics.ObserveSearchDuration(time.Since(started).Seconds())
	}()

	sc, err := e.loadSearchContext(ctx)
	if err != nil {
		return nil, err
	}

	var solutions []models.Solution
	solutions = append(solutions, e.findPerfectMatches(ctx, sc, req)...)
	if req.FlexibleDates {
		solutions = append(solutions, e.findFlexibleDateAlternatives(ctx, sc, req)...)
	}
	solutions = append(solutions, e.findUpgradeOpportunities(ctx, sc, req)...)
	solutions = append(solutions, e.findSplitStays(ctx, sc, req)...)
	solutions = append(solutions, e.findAddOnNights(ctx, sc, req)...)
	solutions = append(solutions, e.findReallocations(ctx, sc, req)...)
	solutions = append(solutions, e.findPriceOptimizations(ctx, req, solutions)...)

	ranked := Rank(solutions)
	if len(ranked) > models.MaxSolutions {
		ranked = ranked[:models.MaxSolutions]
	}

	for _, solution := range ranked {
		metrics.IncSolution(solution.Type)
	}

	e.logger.Debug().
		Int("found", len(solutions)).
		Int("returned", len(ranked)).
		Time("check_in", req.CheckIn).
		Time("check_out", req.CheckOut).
		Msg("solution search completed")

	return ranked, nil
}

func (e *Engine) loadSearchContext(ctx context.Context) (*searchContext, error) {
	rooms, err := e.repo.GetRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}

	since := time.Now().AddDate(0, 0, -models.RecentStayWindowDays)
	recent, err := e.repo.RecentStayCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load stay history: %w", err)
	}

	packaged, err := e.repo.RoomsWithPackage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load package info: %w", err)
	}

	byID := make(map[int64]models.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}

	return &searchContext{rooms: rooms, roomByID: byID, recent: recent, packaged: packaged}, nil
}

// availableRooms returns rooms free for [start, end), optionally restricted
// to a tier and excluding one stay from the occupancy computation.
func (e *Engine) availableRooms(ctx context.Context, sc *searchContext, start, end time.Time, tier models.Tier, excludeStayID int64) ([]models.Room, error) {
	occupied, err := e.repo.OccupiedRooms(ctx, start, end, excludeStayID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute occupancy: %w", err)
	}

	var available []models.Room
	for _, room := range sc.rooms {
		if occupied[room.ID] {
			continue
		}
		if tier != "" && room.Tier != tier {
			continue
		}
		available = append(available, room)
	}
	return available, nil
}

func withinBudget(req models.BookingRequest, price float64) bool {
	return req.MaxBudget <= 0 || price <= req.MaxBudget
}

// findPerfectMatches looks for single rooms free over the whole requested
// interval.
func (e *Engine) findPerfectMatches(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	rooms, err := e.availableRooms(ctx, sc, req.CheckIn, req.CheckOut, req.PreferredTier, 0)
	if err != nil {
		e.logger.Error().Err(err).Msg("perfect match search failed")
		return nil
	}

	nights := req.Nights()
	var solutions []models.Solution
	for _, room := range rooms {
		price := EstimatePrice(room.Tier, req.CheckIn, req.CheckOut)
		if !withinBudget(req, price) {
			continue
		}

		solutions = append(solutions, models.Solution{
			Type:        models.SolutionAvailableRoom,
			Priority:    models.PriorityHigh,
			Title:       fmt.Sprintf("%s available", room.Name),
			Description: fmt.Sprintf("%s free for the full requested period", room.Tier),
			Assignments: []models.RoomAssignment{{
				RoomID:   room.ID,
				RoomName: room.Name,
				Tier:     room.Tier,
				CheckIn:  req.CheckIn,
				CheckOut: req.CheckOut,
				Nights:   nights,
				Price:    price,
			}},
			EstimatedPrice: price,
			Confidence:     sc.score(room),
		})
	}
	return solutions
}

// findFlexibleDateAlternatives shifts the whole interval by each non-zero
// offset in the window, preserving duration, and repeats the perfect-match
// search with a per-day shift penalty.
func (e *Engine) findFlexibleDateAlternatives(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	window := req.Window()
	nights := req.Nights()

	var solutions []models.Solution
	for offset := -window; offset <= window; offset++ {
		if offset == 0 {
			continue
		}

		altIn := req.CheckIn.AddDate(0, 0, offset)
		altOut := altIn.AddDate(0, 0, nights)

		rooms, err := e.availableRooms(ctx, sc, altIn, altOut, req.PreferredTier, 0)
		if err != nil {
			e.logger.Error().Err(err).Int("offset", offset).Msg("flexible date search failed")
			continue
		}
		if len(rooms) > maxRoomsPerOffset {
			rooms = rooms[:maxRoomsPerOffset]
		}

		shift := offset
		if shift < 0 {
			shift = -shift
		}

		for _, room := range rooms {
			price := EstimatePrice(room.Tier, altIn, altOut)
			if !withinBudget(req, price) {
				continue
			}

			direction := "later"
			if offset < 0 {
				direction = "earlier"
			}

			solutions = append(solutions, models.Solution{
				Type:        models.SolutionAlternativeDates,
				Priority:    models.PriorityMedium,
				Title:       fmt.Sprintf("%s with a %d-day shift", room.Name, shift),
				Description: fmt.Sprintf("%s free when the stay starts %d day(s) %s", room.Tier, shift, direction),
				Assignments: []models.RoomAssignment{{
					RoomID:   room.ID,
					RoomName: room.Name,
					Tier:     room.Tier,
					CheckIn:  altIn,
					CheckOut: altOut,
					Nights:   nights,
					Price:    price,
				}},
				EstimatedPrice: price,
				Confidence:     clampConfidence(sc.score(room) - float64(shift)*dateShiftPenaltyPerDay),
				DateOffset:     offset,
			})
		}
	}
	return solutions
}

// findUpgradeOpportunities searches each tier strictly above the preferred
// one, reporting the incremental cost over the as-if-same-tier price.
func (e *Engine) findUpgradeOpportunities(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	if req.PreferredTier == "" {
		return nil
	}

	nights := req.Nights()
	basePrice := EstimatePrice(req.PreferredTier, req.CheckIn, req.CheckOut)
	preferredLevel := req.PreferredTier.Level()

	var solutions []models.Solution
	for _, higher := range models.TiersAbove(req.PreferredTier) {
		rooms, err := e.availableRooms(ctx, sc, req.CheckIn, req.CheckOut, higher, 0)
		if err != nil {
			e.logger.Error().Err(err).Str("tier", string(higher)).Msg("upgrade search failed")
			continue
		}

		tierDiff := higher.Level() - preferredLevel
		for _, room := range rooms {
			upgradePrice := EstimatePrice(room.Tier, req.CheckIn, req.CheckOut)
			if !withinBudget(req, upgradePrice) {
				continue
			}

			solutions = append(solutions, models.Solution{
				Type:        models.SolutionRoomUpgrade,
				Priority:    models.PriorityMedium,
				Title:       fmt.Sprintf("Upgrade to %s", room.Name),
				Description: fmt.Sprintf("Upgrade from %s to %s for +%.0f", req.PreferredTier, higher, upgradePrice-basePrice),
				Assignments: []models.RoomAssignment{{
					RoomID:   room.ID,
					RoomName: room.Name,
					Tier:     room.Tier,
					CheckIn:  req.CheckIn,
					CheckOut: req.CheckOut,
					Nights:   nights,
					Price:    upgradePrice,
				}},
				EstimatedPrice: upgradePrice,
				Confidence:     clampConfidence(sc.score(room) + float64(tierDiff)*0.05),
				UpgradeBenefit: fmt.Sprintf("+%d tier level(s)", tierDiff),
				UpgradeCost:    upgradePrice - basePrice,
			})
		}
	}
	return solutions
}

// findSplitStays partitions the interval at its midpoint and pairs distinct
// rooms across the two halves. The same room in both halves is not a split;
// that is the perfect-match case.
func (e *Engine) findSplitStays(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	nights := req.Nights()
	if nights < models.MinSplitNights {
		return nil
	}

	mid := req.CheckIn.AddDate(0, 0, nights/2)

	firstHalf, err := e.availableRooms(ctx, sc, req.CheckIn, mid, req.PreferredTier, 0)
	if err != nil {
		e.logger.Error().Err(err).Msg("split search failed on first half")
		return nil
	}
	secondHalf, err := e.availableRooms(ctx, sc, mid, req.CheckOut, req.PreferredTier, 0)
	if err != nil {
		e.logger.Error().Err(err).Msg("split search failed on second half")
		return nil
	}

	if len(firstHalf) > maxRoomsPerHalf {
		firstHalf = firstHalf[:maxRoomsPerHalf]
	}
	if len(secondHalf) > maxRoomsPerHalf {
		secondHalf = secondHalf[:maxRoomsPerHalf]
	}

	firstNights := nights / 2
	secondNights := nights - firstNights

	var solutions []models.Solution
	for _, room1 := range firstHalf {
		for _, room2 := range secondHalf {
			if room1.ID == room2.ID {
				continue
			}

			price1 := EstimatePrice(room1.Tier, req.CheckIn, mid)
			price2 := EstimatePrice(room2.Tier, mid, req.CheckOut)
			total := price1 + price2
			if !withinBudget(req, total) {
				continue
			}

			confidence := (sc.score(room1)+sc.score(room2))/2 - splitStayPenalty

			solutions = append(solutions, models.Solution{
				Type:        models.SolutionSplitStay,
				Priority:    models.PriorityLow,
				Title:       fmt.Sprintf("Split: %s + %s", room1.Name, room2.Name),
				Description: fmt.Sprintf("First half in %s, second half in %s", room1.Name, room2.Name),
				Assignments: []models.RoomAssignment{
					{
						RoomID:   room1.ID,
						RoomName: room1.Name,
						Tier:     room1.Tier,
						CheckIn:  req.CheckIn,
						CheckOut: mid,
						Nights:   firstNights,
						Price:    price1,
					},
					{
						RoomID:   room2.ID,
						RoomName: room2.Name,
						Tier:     room2.Tier,
						CheckIn:  mid,
						CheckOut: req.CheckOut,
						Nights:   secondNights,
						Price:    price2,
					},
				},
				EstimatedPrice: total,
				Confidence:     clampConfidence(confidence),
			})
		}
	}
	return solutions
}

// findAddOnNights probes one extra night before check-in and one after
// check-out, reporting each as an add-on with its incremental cost.
func (e *Engine) findAddOnNights(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	var solutions []models.Solution

	probes := []struct {
		solutionType string
		start        time.Time
		end          time.Time
		extraStart   time.Time
		extraEnd     time.Time
		label        string
	}{
		{
			solutionType: models.SolutionEarlyCheckIn,
			start:        req.CheckIn.AddDate(0, 0, -1),
			end:          req.CheckOut,
			extraStart:   req.CheckIn.AddDate(0, 0, -1),
			extraEnd:     req.CheckIn,
			label:        "early check-in",
		},
		{
			solutionType: models.SolutionLateCheckOut,
			start:        req.CheckIn,
			end:          req.CheckOut.AddDate(0, 0, 1),
			extraStart:   req.CheckOut,
			extraEnd:     req.CheckOut.AddDate(0, 0, 1),
			label:        "late check-out",
		},
	}

	for _, probe := range probes {
		rooms, err := e.availableRooms(ctx, sc, probe.start, probe.end, req.PreferredTier, 0)
		if err != nil {
			e.logger.Error().Err(err).Str("probe", probe.label).Msg("add-on night search failed")
			continue
		}
		if len(rooms) > maxAddOnRooms {
			rooms = rooms[:maxAddOnRooms]
		}

		extendedNights := int(probe.end.Sub(probe.start).Hours() / 24)
		for _, room := range rooms {
			extraCost := EstimatePrice(room.Tier, probe.extraStart, probe.extraEnd)
			total := EstimatePrice(room.Tier, req.CheckIn, req.CheckOut) + extraCost
			if !withinBudget(req, total) {
				continue
			}

			solutions = append(solutions, models.Solution{
				Type:        probe.solutionType,
				Priority:    models.PriorityLow,
				Title:       fmt.Sprintf("%s with %s", room.Name, probe.label),
				Description: fmt.Sprintf("%s free for one extra night (%s)", room.Name, probe.label),
				Assignments: []models.RoomAssignment{{
					RoomID:   room.ID,
					RoomName: room.Name,
					Tier:     room.Tier,
					CheckIn:  probe.start,
					CheckOut: probe.end,
					Nights:   extendedNights,
					Price:    total,
				}},
				EstimatedPrice: total,
				AddOnCost:      extraCost,
				Confidence:     clampConfidence(sc.score(room) - addOnNightPenalty),
			})
		}
	}
	return solutions
}

// findReallocations proposes moving an existing guest from a lower-tier
// room to a free higher-tier one, so their original room can serve the new
// request. Always flagged as requiring guest approval.
func (e *Engine) findReallocations(ctx context.Context, sc *searchContext, req models.BookingRequest) []models.Solution {
	stays, err := e.repo.ListActiveStaysOverlapping(ctx, req.CheckIn, req.CheckOut)
	if err != nil {
		e.logger.Error().Err(err).Msg("reallocation search failed")
		return nil
	}

	nights := req.Nights()
	var solutions []models.Solution
	for _, stay := range stays {
		currentRoom, ok := sc.roomByID[stay.RoomID]
		if !ok {
			continue
		}
		higherTiers := models.TiersAbove(currentRoom.Tier)
		if len(higherTiers) == 0 {
			continue
		}

		// The mover keeps their own dates; clamp to the contested window.
		moverIn := stay.CheckIn
		if req.CheckIn.After(moverIn) {
			moverIn = req.CheckIn
		}
		moverOut := req.CheckOut
		if stay.CheckOut != nil && stay.CheckOut.Before(moverOut) {
			moverOut = *stay.CheckOut
		}
		if !moverOut.After(moverIn) {
			continue
		}

		price := EstimatePrice(currentRoom.Tier, req.CheckIn, req.CheckOut)
		if !withinBudget(req, price) {
			continue
		}

		// (b) the vacated room must be free for the requester once the
		// mover's own stay is excluded.
		occupiedWithout, err := e.repo.OccupiedRooms(ctx, req.CheckIn, req.CheckOut, stay.ID)
		if err != nil {
			e.logger.Error().Err(err).Int64("stay_id", stay.ID).Msg("reallocation occupancy check failed")
			continue
		}
		if occupiedWithout[currentRoom.ID] {
			continue
		}

		moves := 0
		for _, higher := range higherTiers {
			if moves >= maxMovesPerStay {
				break
			}

			// (a) a higher-tier room must be free for the mover's interval.
			targets, err := e.availableRooms(ctx, sc, moverIn, moverOut, higher, stay.ID)
			if err != nil {
				e.logger.Error().Err(err).Int64("stay_id", stay.ID).Msg("reallocation target search failed")
				continue
			}

			for _, target := range targets {
				if moves >= maxMovesPerStay {
					break
				}
				moves++

				solutions = append(solutions, models.Solution{
					Type:     models.SolutionReallocation,
					Priority: models.PriorityMedium,
					Title:    fmt.Sprintf("Free %s via goodwill upgrade", currentRoom.Name),
					Description: fmt.Sprintf("Move the current guest from %s to %s to free %s",
						currentRoom.Name, target.Name, currentRoom.Name),
					Assignments: []models.RoomAssignment{{
						RoomID:   currentRoom.ID,
						RoomName: currentRoom.Name,
						Tier:     currentRoom.Tier,
						CheckIn:  req.CheckIn,
						CheckOut: req.CheckOut,
						Nights:   nights,
						Price:    price,
					}},
					EstimatedPrice: price,
					Confidence:     0.75,
					UpgradeBenefit: "current guest receives a free upgrade",
					Reallocation: &models.ReallocationPlan{
						StayID:     stay.ID,
						ClientID:   stay.ClientID,
						FromRoomID: currentRoom.ID,
						FromRoom:   currentRoom.Name,
						ToRoomID:   target.ID,
						ToRoom:     target.Name,
					},
					RequiresApproval: true,
				})
			}
		}
	}
	return solutions
}

// findPriceOptimizations annotates perfect-match suggestions whose nightly
// price sits well below the client's historical average spend.
func (e *Engine) findPriceOptimizations(ctx context.Context, req models.BookingRequest, existing []models.Solution) []models.Solution {
	if req.ClientID == 0 {
		return nil
	}

	profile, err := e.spendingProfile(ctx, req.ClientID)
	if err != nil {
		e.logger.Error().Err(err).Int64("client_id", req.ClientID).Msg("spending lookup failed")
		return nil
	}
	if profile == nil {
		return nil
	}

	nights := req.Nights()
	if nights <= 0 {
		return nil
	}
	tolerance := profile.AveragePerNight * models.SpendingTolerance

	var solutions []models.Solution
	for _, candidate := range existing {
		if candidate.Type != models.SolutionAvailableRoom {
			continue
		}

		perNight := candidate.EstimatedPrice / float64(nights)
		diff := perNight - profile.AveragePerNight
		if diff >= -tolerance {
			continue
		}

		savings := -diff * float64(nights)
		solutions = append(solutions, models.Solution{
			Type:           models.SolutionPriceOptimization,
			Priority:       models.PriorityInfo,
			Title:          fmt.Sprintf("Savings on %s", candidate.Assignments[0].RoomName),
			Description:    fmt.Sprintf("%.0f below this client's historical average", savings),
			Assignments:    candidate.Assignments,
			EstimatedPrice: candidate.EstimatedPrice,
			Confidence:     0.8,
			Savings:        savings,
		})
	}
	return solutions
}

// spendingProfile reads through the cache, recomputing from storage on a
// miss and repopulating the cache best-effort.
func (e *Engine) spendingProfile(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	if e.cache != nil {
		profile, err := e.cache.GetSpending(ctx, clientID)
		if err != nil {
			e.logger.Warn().Err(err).Msg("spending cache read failed")
		} else if profile != nil {
			return profile, nil
		}
	}

	profile, err := e.repo.ClientSpending(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if profile != nil && e.cache != nil {
		if err := e.cache.SetSpending(ctx, profile); err != nil {
			e.logger.Warn().Err(err).Msg("spending cache write failed")
		}
	}
	return profile, nil
}

// Rank orders solutions by priority weight and confidence, stable so
// discovery order breaks ties.
func Rank(solutions []models.Solution) []models.Solution {
	ranked := make([]models.Solution, len(solutions))
	copy(ranked, solutions)

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankScore(ranked[i]) > rankScore(ranked[j])
	})
	return ranked
}

const upgradeRankBonus = 0.1

func rankScore(solution models.Solution) float64 {
	score := float64(models.PriorityWeight(solution.Priority))*2 + solution.Confidence
	if solution.UpgradeBenefit != "" {
		score += upgradeRankBonus
	}
	return score
}
