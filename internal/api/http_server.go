package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/config"
	"github.com/SaicoBys/airbnb-manager/internal/database"
	"github.com/SaicoBys/airbnb-manager/internal/engine"
	"github.com/SaicoBys/airbnb-manager/internal/inventory"
	"github.com/SaicoBys/airbnb-manager/internal/models"
	"github.com/SaicoBys/airbnb-manager/internal/worker"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// HTTPServer exposes the booking and inventory API.
type HTTPServer struct {
	cfg       config.APIConfig
	db        *database.DB
	engine    *engine.Engine
	inventory *inventory.Service
	exports   *worker.ExportWorker
	server    *http.Server
	auth      *HTTPAuth
	logger    *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	db *database.DB,
	searchEngine *engine.Engine,
	inventoryService *inventory.Service,
	exports *worker.ExportWorker,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:       cfg,
		db:        db,
		engine:    searchEngine,
		inventory: inventoryService,
		exports:   exports,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/solutions", srv.handleSolutions)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/stays/close", srv.handleCloseStay)
	mux.HandleFunc("/api/v1/stays/reconcile", srv.handleReconcile)
	mux.HandleFunc("/api/v1/rooms", srv.handleRooms)
	mux.HandleFunc("/api/v1/supplies", srv.handleSupplies)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/exports", srv.handleExports)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := loggingMiddleware(logger, srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

type solutionsRequest struct {
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Guests        int     `json:"guests"`
	PreferredTier string  `json:"preferred_tier"`
	MaxBudget     float64 `json:"max_budget"`
	ClientID      int64   `json:"client_id"`
	FlexibleDates bool    `json:"flexible_dates"`
	FlexibleDays  int     `json:"flexible_days"`
}

func (s *HTTPServer) handleSolutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body solutionsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	checkIn, err := parseDate(body.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_in; expected YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(body.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_out; expected YYYY-MM-DD")
		return
	}

	req := models.BookingRequest{
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        body.Guests,
		PreferredTier: models.Tier(body.PreferredTier),
		MaxBudget:     body.MaxBudget,
		ClientID:      body.ClientID,
		FlexibleDates: body.FlexibleDates,
		FlexibleDays:  body.FlexibleDays,
	}

	solutions, err := s.engine.FindSolutions(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidDateRange) || errors.Is(err, models.ErrInvalidTier) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("solution search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if solutions == nil {
		solutions = []models.Solution{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"solutions": solutions})
}

type bookingRequest struct {
	ClientID int64  `json:"client_id"`
	RoomID   int64  `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Channel  string `json:"channel"`
	Notes    string `json:"notes"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body bookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.RoomID == 0 {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	checkIn, err := parseDate(body.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_in; expected YYYY-MM-DD")
		return
	}

	stay := &models.Stay{
		ClientID: body.ClientID,
		RoomID:   body.RoomID,
		CheckIn:  checkIn,
		Channel:  body.Channel,
		Notes:    body.Notes,
	}
	if strings.TrimSpace(body.CheckOut) != "" {
		checkOut, err := parseDate(body.CheckOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid check_out; expected YYYY-MM-DD")
			return
		}
		if !checkOut.After(checkIn) {
			writeError(w, http.StatusBadRequest, "check_out must be after check_in")
			return
		}
		stay.CheckOut = &checkOut
	}

	result, err := s.inventory.ConfirmBooking(r.Context(), stay)
	if err != nil {
		if errors.Is(err, database.ErrRoomNotAvailable) {
			writeError(w, http.StatusConflict, "room is not available for the requested dates")
			return
		}
		s.logger.Error().Err(err).Msg("booking confirmation failed")
		writeError(w, http.StatusInternalServerError, "booking failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"stay":    stay,
		"package": result,
	})
}

type closeStayRequest struct {
	StayID int64 `json:"stay_id"`
}

func (s *HTTPServer) handleCloseStay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body closeStayRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StayID == 0 {
		writeError(w, http.StatusBadRequest, "stay_id is required")
		return
	}

	if err := s.inventory.CloseStay(r.Context(), body.StayID); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "stay not found")
		case errors.Is(err, database.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error().Err(err).Int64("stay_id", body.StayID).Msg("close stay failed")
			writeError(w, http.StatusInternalServerError, "close failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stay_id": body.StayID, "status": models.StayPendingClosure})
}

type reconcileRequest struct {
	StayID      int64                  `json:"stay_id"`
	VerifierID  int64                  `json:"verifier_id"`
	Notes       string                 `json:"notes"`
	Adjustments []inventory.Adjustment `json:"adjustments"`
}

func (s *HTTPServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body reconcileRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StayID == 0 {
		writeError(w, http.StatusBadRequest, "stay_id is required")
		return
	}

	result, err := s.inventory.Reconcile(r.Context(), body.StayID, body.Adjustments, body.VerifierID, body.Notes)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, database.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, database.ErrInsufficientStock):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error().Err(err).Int64("stay_id", body.StayID).Msg("reconciliation failed")
			writeError(w, http.StatusInternalServerError, "reconciliation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rooms, err := s.db.GetRooms(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list rooms failed")
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleSupplies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	supplies, err := s.db.ListSupplies(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list supplies failed")
		writeError(w, http.StatusInternalServerError, "failed to list supplies")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supplies": supplies})
}

// handleAvailability returns a per-day free-room summary for a date range.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start; expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end; expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	rooms, err := s.db.GetRooms(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list rooms failed")
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}

	type daySummary struct {
		Date      string  `json:"date"`
		Free      int     `json:"free"`
		Occupied  int     `json:"occupied"`
		Total     int     `json:"total"`
		FreeRooms []int64 `json:"free_rooms"`
	}

	var days []daySummary
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		occupied, err := s.db.OccupiedRooms(r.Context(), day, day.AddDate(0, 0, 1), 0)
		if err != nil {
			s.logger.Error().Err(err).Msg("occupancy lookup failed")
			writeError(w, http.StatusInternalServerError, "occupancy lookup failed")
			return
		}

		summary := daySummary{Date: day.Format(dateLayout), Total: len(rooms), FreeRooms: []int64{}}
		for _, room := range rooms {
			if occupied[room.ID] {
				summary.Occupied++
			} else {
				summary.Free++
				summary.FreeRooms = append(summary.FreeRooms, room.ID)
			}
		}
		days = append(days, summary)
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

type exportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *HTTPServer) handleExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body exportRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := parseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
		return
	}

	req := worker.ExportRequest{StartDate: start, EndDate: end, RequestedAt: time.Now()}
	if err := s.exports.Enqueue(req); err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "export queue is full, try again later")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(raw))
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
