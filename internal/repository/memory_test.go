package repository

import (
	"context"
	"testing"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySpendingCache(t *testing.T) {
	cache := NewMemorySpendingCache(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSpending", func(t *testing.T) {
		profile := &models.SpendingProfile{ClientID: 1, TotalSpent: 9000, AveragePerNight: 3000}
		require.NoError(t, cache.SetSpending(ctx, profile))

		got, err := cache.GetSpending(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, profile, got)
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		got, err := cache.GetSpending(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expiry", func(t *testing.T) {
		shortLived := NewMemorySpendingCache(time.Millisecond)
		profile := &models.SpendingProfile{ClientID: 2, TotalSpent: 500}
		require.NoError(t, shortLived.SetSpending(ctx, profile))

		time.Sleep(5 * time.Millisecond)

		got, err := shortLived.GetSpending(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
