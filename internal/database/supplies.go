package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

func (db *DB) ListSupplies(ctx context.Context) ([]models.Supply, error) {
	query := `SELECT id, name, category, current_stock, minimum_stock, unit_price, updated_at
              FROM supplies ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplies: %w", err)
	}
	defer rows.Close()

	var supplies []models.Supply
	for rows.Next() {
		var supply models.Supply
		if err := rows.Scan(&supply.ID, &supply.Name, &supply.Category,
			&supply.CurrentStock, &supply.MinimumStock, &supply.UnitPrice, &supply.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supply: %w", err)
		}
		supplies = append(supplies, supply)
	}
	return supplies, rows.Err()
}

func (db *DB) GetSupply(ctx context.Context, id int64) (*models.Supply, error) {
	return db.getSupply(ctx, db.DB, id)
}

func (db *DB) getSupply(ctx context.Context, q dbtx, id int64) (*models.Supply, error) {
	query := `SELECT id, name, category, current_stock, minimum_stock, unit_price, updated_at
              FROM supplies WHERE id = ?`
	var supply models.Supply
	err := q.QueryRowContext(ctx, query, id).Scan(&supply.ID, &supply.Name,
		&supply.Category, &supply.CurrentStock, &supply.MinimumStock,
		&supply.UnitPrice, &supply.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supply %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supply: %w", err)
	}
	return &supply, nil
}

// deductStock atomically decrements stock, refusing to go below zero. The
// guard in the WHERE clause is the storage-layer backstop for the
// never-negative invariant.
func (db *DB) deductStock(ctx context.Context, q dbtx, supplyID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("negative deduction %d: %w", quantity, ErrInsufficientStock)
	}
	result, err := q.ExecContext(ctx, `
        UPDATE supplies SET current_stock = current_stock - ?, updated_at = ?
        WHERE id = ? AND current_stock >= ?`,
		quantity, time.Now(), supplyID, quantity)
	if err != nil {
		return fmt.Errorf("failed to deduct stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("supply %d, quantity %d: %w", supplyID, quantity, ErrInsufficientStock)
	}
	return nil
}

// returnStock adds quantity back to stock.
func (db *DB) returnStock(ctx context.Context, q dbtx, supplyID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("negative return %d: %w", quantity, ErrInsufficientStock)
	}
	result, err := q.ExecContext(ctx, `
        UPDATE supplies SET current_stock = current_stock + ?, updated_at = ?
        WHERE id = ?`,
		quantity, time.Now(), supplyID)
	if err != nil {
		return fmt.Errorf("failed to return stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("supply %d: %w", supplyID, ErrNotFound)
	}
	return nil
}

func (db *DB) insertUsage(ctx context.Context, q dbtx, usage *models.SupplyUsage) error {
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	result, err := q.ExecContext(ctx, `
        INSERT INTO supply_usages (supply_id, stay_id, room_id, quantity_used, quantity_expected,
            usage_type, cost_per_unit, total_cost, is_confirmed, verified_by, verified_at,
            adjustment_of, notes, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		usage.SupplyID, usage.StayID, usage.RoomID, usage.QuantityUsed, usage.QuantityExpected,
		usage.UsageType, usage.CostPerUnit, usage.TotalCost, usage.IsConfirmed,
		usage.VerifiedBy, usage.VerifiedAt, usage.AdjustmentOf, usage.Notes, usage.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert supply usage: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	usage.ID = id
	return nil
}

// usageExists reports whether a usage row already records this (stay,
// supply) pair; the applier's idempotency check.
func (db *DB) usageExists(ctx context.Context, q dbtx, stayID, supplyID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM supply_usages WHERE stay_id = ? AND supply_id = ?`,
		stayID, supplyID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existing usage: %w", err)
	}
	return count > 0, nil
}

func (db *DB) GetUsage(ctx context.Context, id int64) (*models.SupplyUsage, error) {
	return db.getUsage(ctx, db.DB, id)
}

func (db *DB) getUsage(ctx context.Context, q dbtx, id int64) (*models.SupplyUsage, error) {
	query := `SELECT id, supply_id, stay_id, room_id, quantity_used, quantity_expected,
                     usage_type, cost_per_unit, total_cost, is_confirmed, verified_by,
                     verified_at, adjustment_of, notes, created_at
              FROM supply_usages WHERE id = ?`
	usage, err := scanUsage(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usage %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return usage, nil
}

func scanUsage(row rowScanner) (*models.SupplyUsage, error) {
	var usage models.SupplyUsage
	err := row.Scan(&usage.ID, &usage.SupplyID, &usage.StayID, &usage.RoomID,
		&usage.QuantityUsed, &usage.QuantityExpected, &usage.UsageType,
		&usage.CostPerUnit, &usage.TotalCost, &usage.IsConfirmed,
		&usage.VerifiedBy, &usage.VerifiedAt, &usage.AdjustmentOf,
		&usage.Notes, &usage.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (db *DB) ListUsagesByStay(ctx context.Context, stayID int64) ([]*models.SupplyUsage, error) {
	query := `SELECT id, supply_id, stay_id, room_id, quantity_used, quantity_expected,
                     usage_type, cost_per_unit, total_cost, is_confirmed, verified_by,
                     verified_at, adjustment_of, notes, created_at
              FROM supply_usages WHERE stay_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, stayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usages: %w", err)
	}
	defer rows.Close()

	var usages []*models.SupplyUsage
	for rows.Next() {
		usage, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}

// updateUsageVerified rewrites the mutable verification fields of a usage.
// All other fields are immutable after creation; corrections go through new
// Adjustment records.
func (db *DB) updateUsageVerified(ctx context.Context, q dbtx, usage *models.SupplyUsage) error {
	result, err := q.ExecContext(ctx, `
        UPDATE supply_usages
        SET quantity_used = ?, total_cost = ?, usage_type = ?, is_confirmed = ?,
            verified_by = ?, verified_at = ?, notes = ?
        WHERE id = ?`,
		usage.QuantityUsed, usage.TotalCost, usage.UsageType, usage.IsConfirmed,
		usage.VerifiedBy, usage.VerifiedAt, usage.Notes, usage.ID)
	if err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("usage %d: %w", usage.ID, ErrNotFound)
	}
	return nil
}
