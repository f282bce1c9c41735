package repository

import (
	"context"
	"testing"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSpendingCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	cache := NewRedisSpendingCache(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSpending", func(t *testing.T) {
		profile := &models.SpendingProfile{
			ClientID:        123,
			TotalSpent:      24000,
			TotalNights:     8,
			AveragePerNight: 3000,
			StayCount:       2,
		}

		err := cache.SetSpending(ctx, profile)
		require.NoError(t, err)

		got, err := cache.GetSpending(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, profile.ClientID, got.ClientID)
		assert.Equal(t, profile.TotalSpent, got.TotalSpent)
		assert.Equal(t, profile.AveragePerNight, got.AveragePerNight)
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		got, err := cache.GetSpending(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		profile := &models.SpendingProfile{ClientID: 456, TotalSpent: 100}
		require.NoError(t, cache.SetSpending(ctx, profile))

		s.FastForward(2 * time.Hour)

		got, err := cache.GetSpending(ctx, 456)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NilClient", func(t *testing.T) {
		cache := NewRedisSpendingCache(nil, time.Hour)
		_, err := cache.GetSpending(ctx, 123)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
