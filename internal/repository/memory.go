package repository

import (
	"context"
	"sync"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

// MemorySpendingCache is the in-process fallback cache. Entries expire
// lazily on read.
type MemorySpendingCache struct {
	profiles sync.Map
	ttl      time.Duration
}

func NewMemorySpendingCache(ttl time.Duration) *MemorySpendingCache {
	return &MemorySpendingCache{
		ttl: ttl,
	}
}

type memoryEntry struct {
	profile   *models.SpendingProfile
	expiresAt time.Time
}

func (m *MemorySpendingCache) GetSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	val, ok := m.profiles.Load(clientID)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if m.ttl > 0 && time.Now().After(entry.expiresAt) {
		m.profiles.Delete(clientID)
		return nil, nil
	}
	return entry.profile, nil
}

func (m *MemorySpendingCache) SetSpending(ctx context.Context, profile *models.SpendingProfile) error {
	m.profiles.Store(profile.ClientID, &memoryEntry{
		profile:   profile,
		expiresAt: time.Now().Add(m.ttl),
	})
	return nil
}
