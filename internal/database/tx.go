package database

import (
	"context"
	"fmt"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

// WithTx runs fn inside a transaction, rolling back unless fn succeeds.
func (db *DB) WithTx(ctx context.Context, fn func(tx *UnitOfWork) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&UnitOfWork{q: tx, db: db}); err != nil {
		return err
	}
	return tx.Commit()
}

// UnitOfWork is the explicit transaction object handed to the inventory
// subsystem. Every operation on it runs inside the same SQLite transaction,
// so a booking confirmation (overlap check, stay insert, package deduction)
// commits or rolls back as a whole. Expected conditions (shortages,
// not-found skips) are handled by the callers; errors returned from fn
// abort the transaction.
type UnitOfWork struct {
	q  dbtx
	db *DB
}

// CreateStay checks availability and inserts the stay in one step. Returns
// ErrRoomNotAvailable when an overlapping non-finalized stay exists.
func (u *UnitOfWork) CreateStay(ctx context.Context, stay *models.Stay) error {
	if err := u.db.checkRoomFree(ctx, u.q, stay); err != nil {
		return err
	}
	return u.db.insertStay(ctx, u.q, stay)
}

func (u *UnitOfWork) Stay(ctx context.Context, id int64) (*models.Stay, error) {
	return u.db.getStay(ctx, u.q, id)
}

func (u *UnitOfWork) UpdateStayStatus(ctx context.Context, id int64, status string) error {
	return u.db.updateStayStatus(ctx, u.q, id, status)
}

func (u *UnitOfWork) UpdateRoomStatus(ctx context.Context, id int64, status string) error {
	return u.db.updateRoomStatus(ctx, u.q, id, status)
}

func (u *UnitOfWork) RoomPackage(ctx context.Context, roomID int64) ([]models.PackageItem, error) {
	return u.db.getRoomPackage(ctx, u.q, roomID)
}

func (u *UnitOfWork) Supply(ctx context.Context, id int64) (*models.Supply, error) {
	return u.db.getSupply(ctx, u.q, id)
}

func (u *UnitOfWork) UsageExists(ctx context.Context, stayID, supplyID int64) (bool, error) {
	return u.db.usageExists(ctx, u.q, stayID, supplyID)
}

func (u *UnitOfWork) Usage(ctx context.Context, id int64) (*models.SupplyUsage, error) {
	return u.db.getUsage(ctx, u.q, id)
}

func (u *UnitOfWork) InsertUsage(ctx context.Context, usage *models.SupplyUsage) error {
	return u.db.insertUsage(ctx, u.q, usage)
}

func (u *UnitOfWork) UpdateUsageVerified(ctx context.Context, usage *models.SupplyUsage) error {
	return u.db.updateUsageVerified(ctx, u.q, usage)
}

func (u *UnitOfWork) DeductStock(ctx context.Context, supplyID, quantity int64) error {
	return u.db.deductStock(ctx, u.q, supplyID, quantity)
}

func (u *UnitOfWork) ReturnStock(ctx context.Context, supplyID, quantity int64) error {
	return u.db.returnStock(ctx, u.q, supplyID, quantity)
}
