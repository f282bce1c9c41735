package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpendingProfile), args.Error(1)
}

func (m *mockCache) SetSpending(ctx context.Context, profile *models.SpendingProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func TestFailoverSpendingCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverSpendingCache(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		profile := &models.SpendingProfile{ClientID: 1}
		primary.On("GetSpending", ctx, int64(1)).Return(profile, nil).Once()

		got, err := cache.GetSpending(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, profile, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		profile := &models.SpendingProfile{ClientID: 2}
		primary.On("GetSpending", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetSpending", ctx, int64(2)).Return(profile, nil).Once()

		got, err := cache.GetSpending(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, profile, got)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		profile := &models.SpendingProfile{ClientID: 3}
		primary.On("GetSpending", ctx, int64(3)).Return(profile, nil).Once()

		got, err := cache.GetSpending(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, profile, got)
		assert.False(t, cache.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetSpending", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetSpending", ctx, int64(33)).Return(nil, nil).Once()

		_, err := cache.GetSpending(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSpendingSuccess", func(t *testing.T) {
		cache.isDown.Store(false)
		profile := &models.SpendingProfile{ClientID: 77}
		primary.On("SetSpending", ctx, profile).Return(nil).Once()

		err := cache.SetSpending(ctx, profile)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetSpendingFailover", func(t *testing.T) {
		cache.isDown.Store(false)
		profile := &models.SpendingProfile{ClientID: 4}
		primary.On("SetSpending", ctx, profile).Return(errors.New("fail")).Once()
		fallback.On("SetSpending", ctx, profile).Return(nil).Once()

		err := cache.SetSpending(ctx, profile)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSpendingAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		profile := &models.SpendingProfile{ClientID: 44}
		fallback.On("SetSpending", ctx, profile).Return(nil).Once()

		err := cache.SetSpending(ctx, profile)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})
}
