package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

func (db *DB) GetRooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT id, name, tier, status, sort_order, created_at, updated_at
              FROM rooms ORDER BY sort_order, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Tier, &room.Status,
			&room.SortOrder, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT id, name, tier, status, sort_order, created_at, updated_at
              FROM rooms WHERE id = ?`
	var room models.Room
	err := db.QueryRowContext(ctx, query, id).Scan(&room.ID, &room.Name, &room.Tier,
		&room.Status, &room.SortOrder, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (db *DB) UpdateRoomStatus(ctx context.Context, id int64, status string) error {
	return db.updateRoomStatus(ctx, db.DB, id, status)
}

func (db *DB) updateRoomStatus(ctx context.Context, q dbtx, id int64, status string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetRoomPackage returns the room's configured package lines as typed
// structs built by a single join; ad hoc query rows never cross into the
// business logic.
func (db *DB) GetRoomPackage(ctx context.Context, roomID int64) ([]models.PackageItem, error) {
	return db.getRoomPackage(ctx, db.DB, roomID)
}

func (db *DB) getRoomPackage(ctx context.Context, q dbtx, roomID int64) ([]models.PackageItem, error) {
	query := `SELECT rpi.room_id, rpi.supply_id, s.name, rpi.quantity, rpi.is_mandatory, rpi.usage_type, s.unit_price
              FROM room_package_items rpi
              JOIN supplies s ON s.id = rpi.supply_id
              WHERE rpi.room_id = ?
              ORDER BY rpi.supply_id`
	rows, err := q.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room package: %w", err)
	}
	defer rows.Close()

	var items []models.PackageItem
	for rows.Next() {
		var item models.PackageItem
		if err := rows.Scan(&item.RoomID, &item.SupplyID, &item.SupplyName,
			&item.Quantity, &item.IsMandatory, &item.UsageType, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan package item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RoomsWithPackage returns the set of room IDs that have at least one
// configured package line.
func (db *DB) RoomsWithPackage(ctx context.Context) (map[int64]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT room_id FROM room_package_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms with package: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan room id: %w", err)
		}
		result[id] = true
	}
	return result, rows.Err()
}
