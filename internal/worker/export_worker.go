package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/config"
	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExportRequest asks for an occupancy report over a date range.
type ExportRequest struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	RequestedAt time.Time `json:"requested_at"`
}

// ErrQueueFull is returned when the export queue cannot accept more work.
var ErrQueueFull = errors.New("export queue is full")

// ExportWorker writes occupancy and stock reports to Excel files in the
// background. Requests go through a bounded queue; a full queue rejects
// rather than blocks the caller.
type ExportWorker struct {
	db          *database.DB
	path        string
	retryPolicy RetryPolicy
	queue       chan ExportRequest
	logger      *zerolog.Logger
}

// NewExportWorker builds a worker with sane defaults.
func NewExportWorker(db *database.DB, cfg config.ExportConfig, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	return &ExportWorker{
		db:          db,
		path:        cfg.Path,
		retryPolicy: retry.normalized(),
		queue:       make(chan ExportRequest, models.ExportQueueSize),
		logger:      logger,
	}
}

// Enqueue schedules an export without blocking.
func (w *ExportWorker) Enqueue(req ExportRequest) error {
	if !req.EndDate.After(req.StartDate) {
		return errors.New("export end date must be after start date")
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	select {
	case w.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.queue:
			w.process(ctx, req)
		}
	}
}

func (w *ExportWorker) process(ctx context.Context, req ExportRequest) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		path, err := w.WriteReport(ctx, req.StartDate, req.EndDate)
		if err == nil {
			w.logger.Info().Str("file_path", path).Msg("export completed")
			return
		}
		lastErr = err

		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("export attempt failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}
	w.logger.Error().Err(lastErr).
		Time("start", req.StartDate).
		Time("end", req.EndDate).
		Msg("export failed after retries")
}

// WriteReport builds the workbook for [startDate, endDate] and saves it
// under the export directory, returning the file path.
func (w *ExportWorker) WriteReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	rooms, err := w.db.GetRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting rooms: %w", err)
	}
	stays, err := w.db.ListActiveStaysOverlapping(ctx, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return "", fmt.Errorf("error getting stays: %w", err)
	}
	supplies, err := w.db.ListSupplies(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting supplies: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeOccupancySheet(f, rooms, stays, startDate, endDate); err != nil {
		return "", err
	}
	if err := w.writeStockSheet(f, supplies); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("occupancy_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(w.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func (w *ExportWorker) writeOccupancySheet(f *excelize.File, rooms []models.Room, stays []*models.Stay, startDate, endDate time.Time) error {
	const sheetName = "Occupancy"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// Date headers from column B, one per day.
	dateCols := make(map[string]int)
	col := 2
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[day.Format("2006-01-02")] = col
		col++
	}

	roomStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	occupiedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	// Room rows from row 3.
	roomRows := make(map[int64]int)
	row := 3
	for _, room := range rooms {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%s)", room.Name, room.Tier))
		_ = f.SetCellStyle(sheetName, cell, cell, roomStyle)
		roomRows[room.ID] = row
		row++
	}

	// A stay marks every night from check-in up to (not including) check-out.
	for _, stay := range stays {
		r, ok := roomRows[stay.RoomID]
		if !ok {
			continue
		}
		end := endDate.AddDate(0, 0, 1)
		if stay.CheckOut != nil && stay.CheckOut.Before(end) {
			end = *stay.CheckOut
		}
		for day := stay.CheckIn; day.Before(end); day = day.AddDate(0, 0, 1) {
			c, ok := dateCols[day.Format("2006-01-02")]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c, r)
			_ = f.SetCellValue(sheetName, cell, stay.Ref)
			_ = f.SetCellStyle(sheetName, cell, cell, occupiedStyle)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	return nil
}

func (w *ExportWorker) writeStockSheet(f *excelize.File, supplies []models.Supply) error {
	const sheetName = "Supplies"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	headers := []string{"ID", "Name", "Category", "Current Stock", "Minimum Stock", "Unit Price"}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	lowStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
	})

	for i := range supplies {
		supply := &supplies[i]
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), supply.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), supply.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), supply.Category)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), supply.CurrentStock)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), supply.MinimumStock)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), supply.UnitPrice)
		if supply.IsLowStock() {
			_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), lowStyle)
		}
	}

	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "C", 15)
	return nil
}
