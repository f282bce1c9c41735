package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/metrics"
	"github.com/SaicoBys/airbnb-manager/internal/models"
)

// Adjustment is one verified count for a usage record.
type Adjustment struct {
	UsageID           int64 `json:"usage_id"`
	CorrectedQuantity int64 `json:"corrected_quantity"`
}

// ReconciliationResult summarizes one reconciliation batch.
type ReconciliationResult struct {
	StayID        int64                 `json:"stay_id"`
	Verified      int                   `json:"verified"`
	Corrected     int                   `json:"corrected"`
	StockReturned int64                 `json:"stock_returned"`
	StockDeducted int64                 `json:"stock_deducted"`
	Warnings      []string              `json:"warnings,omitempty"`
	Adjustments   []*models.SupplyUsage `json:"adjustments,omitempty"`
}

// Reconcile verifies a stay's usage records against physically counted
// quantities and finalizes the stay. For each adjustment the stock delta is
// applied (returning over-deducted units, deducting under-deducted ones), a
// correction record pointing at the original usage is written, and the
// original is rewritten to the verified quantity. The whole batch commits
// or rolls back together; a correction that would drive stock negative is
// skipped with a warning and the rest of the batch proceeds.
func (s *Service) Reconcile(ctx context.Context, stayID int64, adjustments []Adjustment, verifierID int64, notes string) (*ReconciliationResult, error) {
	result := &ReconciliationResult{StayID: stayID}

	err := s.db.WithTx(ctx, func(tx *database.UnitOfWork) error {
		stay, err := tx.Stay(ctx, stayID)
		if err != nil {
			return err
		}

		for _, adj := range adjustments {
			if adj.CorrectedQuantity < 0 {
				return fmt.Errorf("usage %d: corrected quantity %d is negative",
					adj.UsageID, adj.CorrectedQuantity)
			}

			usage, err := tx.Usage(ctx, adj.UsageID)
			if err != nil {
				return err
			}
			if usage.StayID == nil || *usage.StayID != stayID {
				return fmt.Errorf("usage %d does not belong to stay %d", adj.UsageID, stayID)
			}
			if usage.IsConfirmed {
				continue
			}

			delta := adj.CorrectedQuantity - usage.QuantityUsed
			if delta > 0 {
				err := tx.DeductStock(ctx, usage.SupplyID, delta)
				if errors.Is(err, database.ErrInsufficientStock) {
					result.Warnings = append(result.Warnings, fmt.Sprintf(
						"usage %d: supply %d has too little stock to deduct %d, adjustment skipped",
						usage.ID, usage.SupplyID, delta))
					s.logger.Warn().
						Int64("usage_id", usage.ID).
						Int64("supply_id", usage.SupplyID).
						Int64("delta", delta).
						Msg("reconciliation adjustment skipped, insufficient stock")
					continue
				}
				if err != nil {
					return err
				}
				result.StockDeducted += delta
			} else if delta < 0 {
				if err := tx.ReturnStock(ctx, usage.SupplyID, -delta); err != nil {
					return err
				}
				result.StockReturned += -delta
			}
			if delta != 0 {
				if err := s.writeCorrection(ctx, tx, usage, delta, verifierID, notes, result); err != nil {
					return err
				}
				result.Corrected++
			}

			usage.QuantityUsed = adj.CorrectedQuantity
			usage.TotalCost = float64(adj.CorrectedQuantity) * usage.CostPerUnit
			usage.UsageType = models.UsageVerified
			usage.IsConfirmed = true
			usage.VerifiedBy = &verifierID
			usage.VerifiedAt = nowPtr()
			if err := tx.UpdateUsageVerified(ctx, usage); err != nil {
				return err
			}
			result.Verified++
		}

		if err := tx.UpdateStayStatus(ctx, stayID, models.StayFinalized); err != nil {
			return err
		}
		return tx.UpdateRoomStatus(ctx, stay.RoomID, models.RoomNeedsCleaning)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncReconciliation()
	s.logger.Info().
		Int64("stay_id", stayID).
		Int("verified", result.Verified).
		Int("corrected", result.Corrected).
		Int64("stock_returned", result.StockReturned).
		Int64("stock_deducted", result.StockDeducted).
		Msg("stay reconciled")
	return result, nil
}

// writeCorrection records the audit row for one applied stock delta. A
// positive delta means more was used than deducted at booking time; a
// negative delta returned the difference to stock.
func (s *Service) writeCorrection(ctx context.Context, tx *database.UnitOfWork, usage *models.SupplyUsage, delta int64, verifierID int64, notes string, result *ReconciliationResult) error {
	correction := &models.SupplyUsage{
		SupplyID:     usage.SupplyID,
		StayID:       usage.StayID,
		RoomID:       usage.RoomID,
		QuantityUsed: delta,
		UsageType:    models.UsageAdjustment,
		CostPerUnit:  usage.CostPerUnit,
		TotalCost:    float64(delta) * usage.CostPerUnit,
		IsConfirmed:  true,
		VerifiedBy:   &verifierID,
		VerifiedAt:   nowPtr(),
		AdjustmentOf: &usage.ID,
		Notes:        notes,
	}
	if err := tx.InsertUsage(ctx, correction); err != nil {
		return err
	}
	result.Adjustments = append(result.Adjustments, correction)
	return nil
}
