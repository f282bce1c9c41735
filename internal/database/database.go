package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// dateLayout is the canonical storage format for stay boundary dates.
const dateLayout = "2006-01-02"

// dbtx is satisfied by both *sql.DB and *sql.Tx so queries can run inside or
// outside an explicit transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// busy_timeout keeps concurrent booking transactions queued instead of
	// failing immediately on the single sqlite writer.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            tier TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'clean',
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS clients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            full_name TEXT NOT NULL,
            phone TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS stays (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            ref TEXT NOT NULL UNIQUE,
            client_id INTEGER NOT NULL,
            room_id INTEGER NOT NULL REFERENCES rooms(id),
            check_in TEXT NOT NULL,
            check_out TEXT,
            status TEXT NOT NULL DEFAULT 'active',
            channel TEXT NOT NULL DEFAULT 'direct',
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS supplies (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT '',
            current_stock INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
            minimum_stock INTEGER NOT NULL DEFAULT 5,
            unit_price REAL NOT NULL DEFAULT 0,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS room_package_items (
            room_id INTEGER NOT NULL REFERENCES rooms(id),
            supply_id INTEGER NOT NULL REFERENCES supplies(id),
            quantity INTEGER NOT NULL,
            is_mandatory BOOLEAN NOT NULL DEFAULT 1,
            usage_type TEXT NOT NULL DEFAULT 'automatic',
            PRIMARY KEY (room_id, supply_id)
        )`,
		`CREATE TABLE IF NOT EXISTS supply_usages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            supply_id INTEGER NOT NULL REFERENCES supplies(id),
            stay_id INTEGER REFERENCES stays(id),
            room_id INTEGER REFERENCES rooms(id),
            quantity_used INTEGER NOT NULL,
            quantity_expected INTEGER,
            usage_type TEXT NOT NULL,
            cost_per_unit REAL NOT NULL DEFAULT 0,
            total_cost REAL NOT NULL DEFAULT 0,
            is_confirmed BOOLEAN NOT NULL DEFAULT 0,
            verified_by INTEGER,
            verified_at DATETIME,
            adjustment_of INTEGER REFERENCES supply_usages(id),
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            stay_id INTEGER NOT NULL REFERENCES stays(id),
            amount REAL NOT NULL,
            method TEXT NOT NULL DEFAULT 'cash',
            paid_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_stays_room_id ON stays(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_status ON stays(status)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_check_in ON stays(check_in)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_client_id ON stays(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usages_stay_id ON supply_usages(stay_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usages_supply_id ON supply_usages(supply_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_stay_id ON payments(stay_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SyncCatalogue upserts the configured rooms, supplies and package items.
// Existing stock levels are preserved; catalogue rows are authoritative for
// everything else.
func (db *DB) SyncCatalogue(ctx context.Context, rooms []models.Room, supplies []models.Supply, packages map[int64][]models.PackageItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalogue sync: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, room := range rooms {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO rooms (id, name, tier, status, sort_order, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                tier = excluded.tier,
                sort_order = excluded.sort_order,
                updated_at = excluded.updated_at`,
			room.ID, room.Name, room.Tier, room.Status, room.SortOrder, time.Now())
		if err != nil {
			return fmt.Errorf("failed to sync room %d: %w", room.ID, err)
		}
	}

	for _, supply := range supplies {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO supplies (id, name, category, current_stock, minimum_stock, unit_price, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                category = excluded.category,
                minimum_stock = excluded.minimum_stock,
                unit_price = excluded.unit_price,
                updated_at = excluded.updated_at`,
			supply.ID, supply.Name, supply.Category, supply.CurrentStock, supply.MinimumStock, supply.UnitPrice, time.Now())
		if err != nil {
			return fmt.Errorf("failed to sync supply %d: %w", supply.ID, err)
		}
	}

	for roomID, items := range packages {
		for _, item := range items {
			_, err := tx.ExecContext(ctx, `
                INSERT INTO room_package_items (room_id, supply_id, quantity, is_mandatory, usage_type)
                VALUES (?, ?, ?, ?, ?)
                ON CONFLICT(room_id, supply_id) DO UPDATE SET
                    quantity = excluded.quantity,
                    is_mandatory = excluded.is_mandatory,
                    usage_type = excluded.usage_type`,
				roomID, item.SupplyID, item.Quantity, item.IsMandatory, item.UsageType)
			if err != nil {
				return fmt.Errorf("failed to sync package item %d/%d: %w", roomID, item.SupplyID, err)
			}
		}
	}

	return tx.Commit()
}
