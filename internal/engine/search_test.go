package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*Engine, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rooms := []models.Room{
		{ID: 1, Name: "Room 1", Tier: models.TierEconomy, Status: models.RoomClean, SortOrder: 1},
		{ID: 2, Name: "Room 2", Tier: models.TierStandard, Status: models.RoomClean, SortOrder: 2},
		{ID: 3, Name: "Room 3", Tier: models.TierStandard, Status: models.RoomClean, SortOrder: 3},
		{ID: 4, Name: "Suite", Tier: models.TierSuite, Status: models.RoomClean, SortOrder: 4},
	}
	supplies := []models.Supply{
		{ID: 1, Name: "Towels", CurrentStock: 20, MinimumStock: 2, UnitPrice: 250},
	}
	packages := map[int64][]models.PackageItem{
		2: {{SupplyID: 1, Quantity: 2, IsMandatory: true, UsageType: models.UsageAutomatic}},
	}
	require.NoError(t, db.SyncCatalogue(context.Background(), rooms, supplies, packages))

	return New(db, nil, &logger), db
}

func addStay(t *testing.T, db *database.DB, clientID, roomID int64, checkIn, checkOut string) *models.Stay {
	in, err := time.Parse("2006-01-02", checkIn)
	require.NoError(t, err)
	out, err := time.Parse("2006-01-02", checkOut)
	require.NoError(t, err)
	stay := &models.Stay{ClientID: clientID, RoomID: roomID, CheckIn: in, CheckOut: &out}
	require.NoError(t, db.CreateStayWithLock(context.Background(), stay))
	return stay
}

func solutionsOfType(solutions []models.Solution, solutionType string) []models.Solution {
	var out []models.Solution
	for _, s := range solutions {
		if s.Type == solutionType {
			out = append(out, s)
		}
	}
	return out
}

func TestFindSolutionsRejectsInvalidRequest(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:  date(2026, 3, 10),
		CheckOut: date(2026, 3, 10),
	})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, err = eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 12),
		PreferredTier: models.Tier("basement"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidTier)
}

func TestPerfectMatches(t *testing.T) {
	eng, _ := setupEngine(t)

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:  date(2026, 3, 10),
		CheckOut: date(2026, 3, 13),
	})
	require.NoError(t, err)

	matches := solutionsOfType(solutions, models.SolutionAvailableRoom)
	require.Len(t, matches, 4, "all rooms are free")

	for _, match := range matches {
		assert.Equal(t, models.PriorityHigh, match.Priority)
		require.Len(t, match.Assignments, 1)
		assert.Equal(t, 3, match.Assignments[0].Nights)
	}

	// The packaged room scores higher than its identical twin.
	var packaged, plain *models.Solution
	for i := range matches {
		switch matches[i].Assignments[0].RoomID {
		case 2:
			packaged = &matches[i]
		case 3:
			plain = &matches[i]
		}
	}
	require.NotNil(t, packaged)
	require.NotNil(t, plain)
	assert.Greater(t, packaged.Confidence, plain.Confidence)
}

func TestPerfectMatchTierAndBudgetFilters(t *testing.T) {
	eng, _ := setupEngine(t)

	// Tier filter.
	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
	})
	require.NoError(t, err)
	matches := solutionsOfType(solutions, models.SolutionAvailableRoom)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].Assignments[0].RoomID)

	// Budget filter: 3 nights economy is 6000; a 5000 budget excludes all.
	solutions, err = eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
		MaxBudget:     5000,
	})
	require.NoError(t, err)
	assert.Empty(t, solutionsOfType(solutions, models.SolutionAvailableRoom))
}

func TestFlexibleDateAlternatives(t *testing.T) {
	eng, db := setupEngine(t)

	// Room 1 is the only economy room; block the requested window but leave
	// earlier dates free.
	addStay(t, db, 1, 1, "2026-03-10", "2026-03-13")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
		FlexibleDates: true,
		FlexibleDays:  3,
	})
	require.NoError(t, err)

	assert.Empty(t, solutionsOfType(solutions, models.SolutionAvailableRoom))

	alternatives := solutionsOfType(solutions, models.SolutionAlternativeDates)
	require.NotEmpty(t, alternatives)
	for _, alt := range alternatives {
		assert.NotZero(t, alt.DateOffset)
		assert.Equal(t, models.PriorityMedium, alt.Priority)
		assert.Equal(t, 3, alt.Assignments[0].Nights, "duration is preserved")
	}

	// A minus-three-day shift lands on fully free dates.
	found := false
	for _, alt := range alternatives {
		if alt.DateOffset == -3 {
			found = true
			assert.Equal(t, date(2026, 3, 7), alt.Assignments[0].CheckIn)
		}
	}
	assert.True(t, found)
}

func TestNoFlexibleSolutionsWithoutOptIn(t *testing.T) {
	eng, db := setupEngine(t)
	addStay(t, db, 1, 1, "2026-03-10", "2026-03-13")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
	})
	require.NoError(t, err)
	assert.Empty(t, solutionsOfType(solutions, models.SolutionAlternativeDates))
}

func TestUpgradeOpportunities(t *testing.T) {
	eng, db := setupEngine(t)

	// Economy fully booked; standard and suite free.
	addStay(t, db, 1, 1, "2026-03-10", "2026-03-13")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
	})
	require.NoError(t, err)

	upgrades := solutionsOfType(solutions, models.SolutionRoomUpgrade)
	require.NotEmpty(t, upgrades)

	// 3 nights: economy 6000, standard 9000, suite 18000.
	for _, upgrade := range upgrades {
		assert.NotEmpty(t, upgrade.UpgradeBenefit)
		switch upgrade.Assignments[0].Tier {
		case models.TierStandard:
			assert.InDelta(t, 3000, upgrade.UpgradeCost, 0.001)
		case models.TierSuite:
			assert.InDelta(t, 12000, upgrade.UpgradeCost, 0.001)
		}
	}
}

func TestSplitStay(t *testing.T) {
	eng, db := setupEngine(t)

	// Four nights, midpoint after night two. Room 2 is busy the second half,
	// room 3 the first half; neither room covers the whole stay.
	addStay(t, db, 1, 2, "2026-03-12", "2026-03-14")
	addStay(t, db, 2, 3, "2026-03-10", "2026-03-12")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 14),
		PreferredTier: models.TierStandard,
	})
	require.NoError(t, err)

	assert.Empty(t, solutionsOfType(solutions, models.SolutionAvailableRoom))

	splits := solutionsOfType(solutions, models.SolutionSplitStay)
	require.NotEmpty(t, splits)

	split := splits[0]
	require.Len(t, split.Assignments, 2)
	assert.NotEqual(t, split.Assignments[0].RoomID, split.Assignments[1].RoomID)
	assert.Equal(t, date(2026, 3, 12), split.Assignments[0].CheckOut)
	assert.Equal(t, date(2026, 3, 12), split.Assignments[1].CheckIn)
	assert.Equal(t, models.PriorityLow, split.Priority)
	assert.InDelta(t, split.Assignments[0].Price+split.Assignments[1].Price, split.EstimatedPrice, 0.001)
}

func TestNoSplitForShortStays(t *testing.T) {
	eng, db := setupEngine(t)
	addStay(t, db, 1, 2, "2026-03-11", "2026-03-12")
	addStay(t, db, 2, 3, "2026-03-10", "2026-03-11")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 12),
		PreferredTier: models.TierStandard,
	})
	require.NoError(t, err)
	assert.Empty(t, solutionsOfType(solutions, models.SolutionSplitStay))
}

func TestAddOnNights(t *testing.T) {
	eng, _ := setupEngine(t)

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
	})
	require.NoError(t, err)

	early := solutionsOfType(solutions, models.SolutionEarlyCheckIn)
	late := solutionsOfType(solutions, models.SolutionLateCheckOut)
	require.NotEmpty(t, early)
	require.NotEmpty(t, late)

	// Economy extra night is 2000 on top of the 6000 base.
	assert.InDelta(t, 2000, early[0].AddOnCost, 0.001)
	assert.InDelta(t, 8000, early[0].EstimatedPrice, 0.001)
	assert.Equal(t, date(2026, 3, 9), early[0].Assignments[0].CheckIn)
	assert.Equal(t, date(2026, 3, 14), late[0].Assignments[0].CheckOut)
}

func TestReallocation(t *testing.T) {
	eng, db := setupEngine(t)

	// An economy guest occupies room 1; the suite is free for their dates.
	stay := addStay(t, db, 42, 1, "2026-03-09", "2026-03-14")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:  date(2026, 3, 10),
		CheckOut: date(2026, 3, 13),
	})
	require.NoError(t, err)

	reallocations := solutionsOfType(solutions, models.SolutionReallocation)
	require.NotEmpty(t, reallocations)

	plan := reallocations[0].Reallocation
	require.NotNil(t, plan)
	assert.Equal(t, stay.ID, plan.StayID)
	assert.Equal(t, int64(42), plan.ClientID)
	assert.Equal(t, int64(1), plan.FromRoomID)
	assert.True(t, reallocations[0].RequiresApproval)
	assert.NotEmpty(t, reallocations[0].UpgradeBenefit)

	// The move target is strictly higher tier than the vacated room.
	toRoom, err := db.GetRoom(context.Background(), plan.ToRoomID)
	require.NoError(t, err)
	assert.Greater(t, toRoom.Tier.Level(), models.TierEconomy.Level())
}

func TestNoReallocationForTopTierGuest(t *testing.T) {
	eng, db := setupEngine(t)
	addStay(t, db, 1, 4, "2026-03-09", "2026-03-14")

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:  date(2026, 3, 10),
		CheckOut: date(2026, 3, 13),
	})
	require.NoError(t, err)
	assert.Empty(t, solutionsOfType(solutions, models.SolutionReallocation))
}

func TestPriceOptimization(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	// Build history: one finalized 4-night stay for 20000, avg 5000/night.
	history := addStay(t, db, 7, 4, "2026-01-05", "2026-01-09")
	require.NoError(t, db.CreatePayment(ctx, &models.Payment{StayID: history.ID, Amount: 20000, Method: "card"}))
	require.NoError(t, db.UpdateStayStatus(ctx, history.ID, models.StayFinalized))

	solutions, err := eng.FindSolutions(ctx, models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
		ClientID:      7,
	})
	require.NoError(t, err)

	optimizations := solutionsOfType(solutions, models.SolutionPriceOptimization)
	require.Len(t, optimizations, 1)

	// Economy at 2000/night sits 3000 under the 5000 average: 9000 saved.
	opt := optimizations[0]
	assert.Equal(t, models.PriorityInfo, opt.Priority)
	assert.InDelta(t, 9000, opt.Savings, 0.001)
}

func TestNoPriceOptimizationWithoutHistory(t *testing.T) {
	eng, _ := setupEngine(t)

	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 13),
		PreferredTier: models.TierEconomy,
		ClientID:      99,
	})
	require.NoError(t, err)
	assert.Empty(t, solutionsOfType(solutions, models.SolutionPriceOptimization))
}

func TestRankOrdering(t *testing.T) {
	solutions := []models.Solution{
		{Type: "a", Priority: models.PriorityInfo, Confidence: 0.9},
		{Type: "b", Priority: models.PriorityHigh, Confidence: 0.4},
		{Type: "c", Priority: models.PriorityHigh, Confidence: 0.9},
		{Type: "d", Priority: models.PriorityMedium, Confidence: 0.9, UpgradeBenefit: "+1 tier"},
		{Type: "e", Priority: models.PriorityMedium, Confidence: 0.9},
	}

	ranked := Rank(solutions)
	require.Len(t, ranked, 5)

	// Priority dominates confidence; the upgrade bonus breaks the tie
	// between the two medium solutions.
	assert.Equal(t, "c", ranked[0].Type)
	assert.Equal(t, "b", ranked[1].Type)
	assert.Equal(t, "d", ranked[2].Type)
	assert.Equal(t, "e", ranked[3].Type)
	assert.Equal(t, "a", ranked[4].Type)
}

func TestRankIsStable(t *testing.T) {
	solutions := []models.Solution{
		{Title: "first", Priority: models.PriorityHigh, Confidence: 0.7},
		{Title: "second", Priority: models.PriorityHigh, Confidence: 0.7},
		{Title: "third", Priority: models.PriorityHigh, Confidence: 0.7},
	}

	ranked := Rank(solutions)
	assert.Equal(t, "first", ranked[0].Title)
	assert.Equal(t, "second", ranked[1].Title)
	assert.Equal(t, "third", ranked[2].Title)
}

func TestResultCap(t *testing.T) {
	eng, _ := setupEngine(t)

	// A free house with flexible dates generates far more than the cap.
	solutions, err := eng.FindSolutions(context.Background(), models.BookingRequest{
		CheckIn:       date(2026, 3, 10),
		CheckOut:      date(2026, 3, 14),
		FlexibleDates: true,
		FlexibleDays:  3,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(solutions), models.MaxSolutions)
}
