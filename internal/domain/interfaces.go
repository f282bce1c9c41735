package domain

import (
	"context"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

// Repository is the read surface the search engine needs. *database.DB
// implements it; searches are read-only and need no transaction beyond
// consistent reads.
type Repository interface {
	GetRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	OccupiedRooms(ctx context.Context, start, end time.Time, excludeStayID int64) (map[int64]bool, error)
	ListActiveStaysOverlapping(ctx context.Context, start, end time.Time) ([]*models.Stay, error)
	RecentStayCounts(ctx context.Context, since time.Time) (map[int64]int, error)
	RoomsWithPackage(ctx context.Context) (map[int64]bool, error)
	ClientSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error)
}

// SpendingCache caches client spending profiles for the price-optimization
// pass. A nil profile with a nil error means a cache miss.
type SpendingCache interface {
	GetSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error)
	SetSpending(ctx context.Context, profile *models.SpendingProfile) error
}
