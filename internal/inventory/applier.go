package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/metrics"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
)

// Service applies room packages to stays and reconciles recorded usage
// against verified counts. All mutations run inside a single unit of work
// per call.
type Service struct {
	db     *database.DB
	logger *zerolog.Logger
}

func New(db *database.DB, logger *zerolog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Shortage records a package item that could not be fully deducted.
type Shortage struct {
	SupplyID   int64  `json:"supply_id"`
	SupplyName string `json:"supply_name"`
	Requested  int64  `json:"requested"`
	Deducted   int64  `json:"deducted"`
	Missing    int64  `json:"missing"`
}

// ApplicationResult summarizes one package application. Shortages and
// per-item errors are reported here, not as call failures; only systemic
// errors abort the transaction.
type ApplicationResult struct {
	StayID    int64                 `json:"stay_id"`
	Applied   int                   `json:"applied"`
	Skipped   int                   `json:"skipped"`
	Shortages []Shortage            `json:"shortages,omitempty"`
	Warnings  []string              `json:"warnings,omitempty"`
	Errors    []string              `json:"errors,omitempty"`
	Items     []*models.SupplyUsage `json:"items,omitempty"`
}

// ConfirmBooking creates the stay and deducts its room package in one
// transaction. Returns database.ErrRoomNotAvailable when an overlapping
// stay already holds the room; in that case nothing is written.
func (s *Service) ConfirmBooking(ctx context.Context, stay *models.Stay) (*ApplicationResult, error) {
	result := &ApplicationResult{}

	err := s.db.WithTx(ctx, func(tx *database.UnitOfWork) error {
		if err := tx.CreateStay(ctx, stay); err != nil {
			return err
		}
		result.StayID = stay.ID
		return s.applyPackage(ctx, tx, stay, result)
	})
	if err != nil {
		if errors.Is(err, database.ErrRoomNotAvailable) {
			metrics.IncBooking("conflict")
		} else {
			metrics.IncBooking("error")
		}
		return nil, err
	}

	metrics.IncBooking("confirmed")
	s.logger.Info().
		Int64("stay_id", stay.ID).
		Int64("room_id", stay.RoomID).
		Int("applied", result.Applied).
		Int("shortages", len(result.Shortages)).
		Msg("booking confirmed")
	return result, nil
}

// ApplyPackage deducts the room package for an existing stay. Safe to call
// more than once; items already recorded for the stay are skipped.
func (s *Service) ApplyPackage(ctx context.Context, stayID int64) (*ApplicationResult, error) {
	result := &ApplicationResult{StayID: stayID}

	err := s.db.WithTx(ctx, func(tx *database.UnitOfWork) error {
		stay, err := tx.Stay(ctx, stayID)
		if err != nil {
			return err
		}
		return s.applyPackage(ctx, tx, stay, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyPackage walks the room's package items inside the caller's
// transaction. Only mandatory lines deduct automatically; optional lines
// wait for a manual usage entry. Per-item problems (missing supply, partial
// stock) are recorded on the result and never abort the batch; a stay with
// a partly applied package is still a valid stay.
func (s *Service) applyPackage(ctx context.Context, tx *database.UnitOfWork, stay *models.Stay, result *ApplicationResult) error {
	items, err := tx.RoomPackage(ctx, stay.RoomID)
	if err != nil {
		return fmt.Errorf("failed to load room package: %w", err)
	}

	for _, item := range items {
		if !item.IsMandatory {
			continue
		}

		exists, err := tx.UsageExists(ctx, stay.ID, item.SupplyID)
		if err != nil {
			return err
		}
		if exists {
			result.Skipped++
			continue
		}

		supply, err := tx.Supply(ctx, item.SupplyID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("supply %d (%s) no longer exists", item.SupplyID, item.SupplyName))
				continue
			}
			return err
		}

		deduct := item.Quantity
		if supply.CurrentStock < deduct {
			deduct = supply.CurrentStock
		}

		if deduct < item.Quantity {
			result.Shortages = append(result.Shortages, Shortage{
				SupplyID:   supply.ID,
				SupplyName: supply.Name,
				Requested:  item.Quantity,
				Deducted:   deduct,
				Missing:    item.Quantity - deduct,
			})
			metrics.IncShortage()
			s.logger.Warn().
				Int64("stay_id", stay.ID).
				Int64("supply_id", supply.ID).
				Int64("requested", item.Quantity).
				Int64("available", supply.CurrentStock).
				Msg("supply shortage during package application")
		}

		// Nothing in stock: the shortage entry alone records the miss.
		if deduct == 0 {
			continue
		}

		if err := tx.DeductStock(ctx, supply.ID, deduct); err != nil {
			return err
		}

		usageType := item.UsageType
		if usageType == "" {
			usageType = models.UsageAutomatic
		}
		expected := item.Quantity
		usage := &models.SupplyUsage{
			SupplyID:         supply.ID,
			StayID:           &stay.ID,
			RoomID:           &stay.RoomID,
			QuantityUsed:     deduct,
			QuantityExpected: &expected,
			UsageType:        usageType,
			CostPerUnit:      supply.UnitPrice,
			TotalCost:        float64(deduct) * supply.UnitPrice,
		}
		if err := tx.InsertUsage(ctx, usage); err != nil {
			return err
		}

		result.Applied++
		result.Items = append(result.Items, usage)

		if supply.CurrentStock-deduct <= supply.MinimumStock {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s at or below minimum stock (%d left)",
					supply.Name, supply.CurrentStock-deduct))
		}
	}
	return nil
}

// CloseStay moves a stay to pending closure, the state in which its usage
// is awaiting reconciliation.
func (s *Service) CloseStay(ctx context.Context, stayID int64) error {
	err := s.db.WithTx(ctx, func(tx *database.UnitOfWork) error {
		return tx.UpdateStayStatus(ctx, stayID, models.StayPendingClosure)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("stay_id", stayID).Msg("stay pending closure")
	return nil
}

func nowPtr() *time.Time {
	now := time.Now()
	return &now
}
