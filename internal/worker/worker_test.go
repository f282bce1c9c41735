package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/config"
	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 8*time.Second, policy.NextDelay(4))
	// Clamped at MaxDelay.
	assert.Equal(t, 10*time.Second, policy.NextDelay(5))
	// Attempt below 1 behaves like the first attempt.
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestRetryPolicyZeroValues(t *testing.T) {
	// The zero value takes the package defaults: 2s base, factor 2, 30s cap.
	var policy RetryPolicy
	assert.Equal(t, 2*time.Second, policy.NextDelay(1))
	assert.Equal(t, 4*time.Second, policy.NextDelay(2))
	assert.Equal(t, 30*time.Second, policy.NextDelay(10))

	normalized := policy.normalized()
	assert.Equal(t, defaultMaxRetries, normalized.MaxRetries)
	assert.Equal(t, defaultInitialDelay, normalized.InitialDelay)
}

func setupWorker(t *testing.T) (*ExportWorker, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rooms := []models.Room{
		{ID: 1, Name: "Room 1", Tier: models.TierStandard, Status: models.RoomClean, SortOrder: 1},
		{ID: 2, Name: "Room 2", Tier: models.TierSuite, Status: models.RoomClean, SortOrder: 2},
	}
	supplies := []models.Supply{
		{ID: 1, Name: "Towels", Category: "linen", CurrentStock: 1, MinimumStock: 5, UnitPrice: 250},
	}
	require.NoError(t, db.SyncCatalogue(context.Background(), rooms, supplies, nil))

	cfg := config.ExportConfig{Path: t.TempDir()}
	return NewExportWorker(db, cfg, RetryPolicy{}, &logger), db
}

func TestEnqueueValidation(t *testing.T) {
	w, _ := setupWorker(t)

	err := w.Enqueue(ExportRequest{
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)

	err = w.Enqueue(ExportRequest{
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestEnqueueQueueFull(t *testing.T) {
	w, _ := setupWorker(t)

	req := ExportRequest{
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < models.ExportQueueSize; i++ {
		require.NoError(t, w.Enqueue(req))
	}

	err := w.Enqueue(req)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestWriteReport(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

	out := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	stay := &models.Stay{ClientID: 1, RoomID: 1, CheckIn: start, CheckOut: &out}
	require.NoError(t, db.CreateStayWithLock(ctx, stay))

	path, err := w.WriteReport(ctx, start, end)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Occupancy grid: the stay's ref marks its nights.
	value, err := f.GetCellValue("Occupancy", "B3")
	require.NoError(t, err)
	assert.Equal(t, stay.Ref, value, "first night occupied")

	value, err = f.GetCellValue("Occupancy", "C3")
	require.NoError(t, err)
	assert.Equal(t, stay.Ref, value, "second night occupied")

	// Check-out day is free under the half-open convention.
	value, err = f.GetCellValue("Occupancy", "D3")
	require.NoError(t, err)
	assert.Empty(t, value)

	// Low supplies appear on the stock sheet.
	value, err = f.GetCellValue("Supplies", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Towels", value)
}

func TestWorkerProcessesQueue(t *testing.T) {
	w, _ := setupWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.Enqueue(ExportRequest{
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}))

	// Wait for the export file to appear.
	deadline := time.After(5 * time.Second)
	for {
		entries, err := os.ReadDir(w.path)
		require.NoError(t, err)
		if len(entries) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("export file never appeared")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
