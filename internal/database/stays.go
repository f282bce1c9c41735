package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/google/uuid"
)

// OccupiedRooms returns the IDs of rooms with a non-finalized stay
// overlapping [start, end). The interval is half-open: a stay checking out
// exactly at start does not conflict with a new stay beginning at start.
// excludeStayID (0 = none) removes one stay from consideration, used for
// "would this room free up" reallocation checks.
func (db *DB) OccupiedRooms(ctx context.Context, start, end time.Time, excludeStayID int64) (map[int64]bool, error) {
	return db.occupiedRooms(ctx, db.DB, start, end, excludeStayID)
}

func (db *DB) occupiedRooms(ctx context.Context, q dbtx, start, end time.Time, excludeStayID int64) (map[int64]bool, error) {
	query := `SELECT room_id FROM stays
              WHERE status IN (?, ?)
              AND check_in < ?
              AND (check_out IS NULL OR check_out > ?)`
	args := []any{models.StayActive, models.StayPendingClosure,
		end.Format(dateLayout), start.Format(dateLayout)}

	if excludeStayID != 0 {
		query += ` AND id != ?`
		args = append(args, excludeStayID)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupied rooms: %w", err)
	}
	defer rows.Close()

	occupied := make(map[int64]bool)
	for rows.Next() {
		var roomID int64
		if err := rows.Scan(&roomID); err != nil {
			return nil, fmt.Errorf("failed to scan room id: %w", err)
		}
		occupied[roomID] = true
	}
	return occupied, rows.Err()
}

// insertStay writes a new stay inside the caller's transaction. The overlap
// check must already have run in the same transaction.
func (db *DB) insertStay(ctx context.Context, q dbtx, stay *models.Stay) error {
	if stay.Ref == "" {
		stay.Ref = uuid.NewString()
	}
	if stay.Status == "" {
		stay.Status = models.StayActive
	}
	if stay.Channel == "" {
		stay.Channel = "direct"
	}

	var checkOut any
	if stay.CheckOut != nil {
		checkOut = stay.CheckOut.Format(dateLayout)
	}

	now := time.Now()
	result, err := q.ExecContext(ctx, `
        INSERT INTO stays (ref, client_id, room_id, check_in, check_out, status, channel, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stay.Ref, stay.ClientID, stay.RoomID, stay.CheckIn.Format(dateLayout),
		checkOut, stay.Status, stay.Channel, stay.Notes, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert stay: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	stay.ID = id
	stay.CreatedAt = now
	stay.UpdatedAt = now
	return nil
}

// CreateStayWithLock runs the availability check and the stay insert in a
// single transaction so two concurrent confirmations for overlapping dates
// on the same room cannot both succeed.
func (db *DB) CreateStayWithLock(ctx context.Context, stay *models.Stay) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := db.checkRoomFree(ctx, tx, stay); err != nil {
		return err
	}
	if err := db.insertStay(ctx, tx, stay); err != nil {
		return err
	}
	return tx.Commit()
}

// checkRoomFree enforces the §4.1 overlap rule inside a transaction. An
// open-ended stay request conflicts with anything from check_in onward.
func (db *DB) checkRoomFree(ctx context.Context, q dbtx, stay *models.Stay) error {
	end := stay.CheckIn.AddDate(100, 0, 0) // open-ended occupies indefinitely
	if stay.CheckOut != nil {
		end = *stay.CheckOut
	}
	occupied, err := db.occupiedRooms(ctx, q, stay.CheckIn, end, 0)
	if err != nil {
		return err
	}
	if occupied[stay.RoomID] {
		return ErrRoomNotAvailable
	}
	return nil
}

func (db *DB) GetStay(ctx context.Context, id int64) (*models.Stay, error) {
	return db.getStay(ctx, db.DB, id)
}

func (db *DB) getStay(ctx context.Context, q dbtx, id int64) (*models.Stay, error) {
	query := `SELECT id, ref, client_id, room_id, check_in, check_out, status, channel, notes, created_at, updated_at
              FROM stays WHERE id = ?`
	stay, err := scanStay(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stay %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stay: %w", err)
	}
	return stay, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStay(row rowScanner) (*models.Stay, error) {
	var stay models.Stay
	var checkIn string
	var checkOut sql.NullString
	err := row.Scan(&stay.ID, &stay.Ref, &stay.ClientID, &stay.RoomID,
		&checkIn, &checkOut, &stay.Status, &stay.Channel, &stay.Notes,
		&stay.CreatedAt, &stay.UpdatedAt)
	if err != nil {
		return nil, err
	}

	stay.CheckIn, err = time.Parse(dateLayout, checkIn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse check_in %q: %w", checkIn, err)
	}
	if checkOut.Valid {
		parsed, err := time.Parse(dateLayout, checkOut.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse check_out %q: %w", checkOut.String, err)
		}
		stay.CheckOut = &parsed
	}
	return &stay, nil
}

// validStayTransitions encodes the lifecycle: active -> pending_closure ->
// finalized, or active -> finalized directly. Finalized is terminal.
var validStayTransitions = map[string][]string{
	models.StayActive:         {models.StayPendingClosure, models.StayFinalized},
	models.StayPendingClosure: {models.StayFinalized},
}

func (db *DB) UpdateStayStatus(ctx context.Context, id int64, status string) error {
	return db.updateStayStatus(ctx, db.DB, id, status)
}

func (db *DB) updateStayStatus(ctx context.Context, q dbtx, id int64, status string) error {
	stay, err := db.getStay(ctx, q, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range validStayTransitions[stay.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%s -> %s: %w", stay.Status, status, ErrInvalidTransition)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE stays SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update stay status: %w", err)
	}
	return nil
}

// ListActiveStaysOverlapping returns Active stays overlapping [start, end)
// per the half-open rule, candidates for goodwill reallocation.
func (db *DB) ListActiveStaysOverlapping(ctx context.Context, start, end time.Time) ([]*models.Stay, error) {
	query := `SELECT id, ref, client_id, room_id, check_in, check_out, status, channel, notes, created_at, updated_at
              FROM stays
              WHERE status = ?
              AND check_in < ?
              AND (check_out IS NULL OR check_out > ?)
              ORDER BY check_in`
	rows, err := db.QueryContext(ctx, query, models.StayActive,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping stays: %w", err)
	}
	defer rows.Close()

	var stays []*models.Stay
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		stays = append(stays, stay)
	}
	return stays, rows.Err()
}

// RecentStayCounts returns, per room, how many stays checked in within the
// trailing window. Feeds the occupancy-history confidence factor.
func (db *DB) RecentStayCounts(ctx context.Context, since time.Time) (map[int64]int, error) {
	query := `SELECT room_id, COUNT(*) FROM stays WHERE check_in >= ? GROUP BY room_id`
	rows, err := db.QueryContext(ctx, query, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent stays: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var roomID int64
		var count int
		if err := rows.Scan(&roomID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stay count: %w", err)
		}
		counts[roomID] = count
	}
	return counts, rows.Err()
}

func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO clients (full_name, phone, created_at) VALUES (?, ?, ?)`,
		client.FullName, client.Phone, now)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	return nil
}

func (db *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now()
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO payments (stay_id, amount, method, paid_at) VALUES (?, ?, ?, ?)`,
		payment.StayID, payment.Amount, payment.Method, payment.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	payment.ID = id
	return nil
}

// ClientSpending computes a client's historical nightly spend over finalized
// stays with a recorded check-out. Returns nil when there is no usable
// history.
func (db *DB) ClientSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	query := `SELECT COALESCE(SUM(p.amount), 0),
                     COALESCE(SUM(julianday(s.check_out) - julianday(s.check_in)), 0),
                     COUNT(DISTINCT s.id)
              FROM stays s
              JOIN payments p ON p.stay_id = s.id
              WHERE s.client_id = ? AND s.status = ? AND s.check_out IS NOT NULL`

	var totalSpent float64
	var totalNights float64
	var stayCount int64
	err := db.QueryRowContext(ctx, query, clientID, models.StayFinalized).
		Scan(&totalSpent, &totalNights, &stayCount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute client spending: %w", err)
	}

	if stayCount == 0 || totalNights <= 0 || totalSpent <= 0 {
		return nil, nil
	}

	return &models.SpendingProfile{
		ClientID:        clientID,
		TotalSpent:      totalSpent,
		TotalNights:     int64(totalNights),
		AveragePerNight: totalSpent / totalNights,
		StayCount:       stayCount,
	}, nil
}
