package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/domain"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSpendingCache fronts a primary cache with an in-process fallback.
// After a primary failure all traffic goes to the fallback; the primary is
// retried at most once a minute.
type FailoverSpendingCache struct {
	primary   domain.SpendingCache
	fallback  domain.SpendingCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSpendingCache(primary, fallback domain.SpendingCache, logger *zerolog.Logger) *FailoverSpendingCache {
	return &FailoverSpendingCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverSpendingCache) GetSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	if !f.isDown.Load() {
		profile, err := f.primary.GetSpending(ctx, clientID)
		if err == nil {
			return profile, nil
		}
		f.logger.Error().Err(err).Msg("Primary spending cache failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if f.isDown.Load() && time.Since(f.lastCheck) > time.Minute {
		profile, err := f.primary.GetSpending(ctx, clientID)
		if err == nil {
			f.isDown.Store(false)
			return profile, nil
		}
		f.lastCheck = time.Now()
	}

	return f.fallback.GetSpending(ctx, clientID)
}

func (f *FailoverSpendingCache) SetSpending(ctx context.Context, profile *models.SpendingProfile) error {
	if !f.isDown.Load() {
		err := f.primary.SetSpending(ctx, profile)
		if err == nil {
			return nil
		}
		f.logger.Error().Err(err).Msg("Primary spending cache failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	return f.fallback.SetSpending(ctx, profile)
}
