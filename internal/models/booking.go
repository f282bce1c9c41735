package models

import (
	"errors"
	"time"
)

// Solution types, in the order the search attempts them.
const (
	SolutionAvailableRoom     = "available_room"
	SolutionAlternativeDates  = "alternative_dates"
	SolutionRoomUpgrade       = "room_upgrade"
	SolutionSplitStay         = "split_stay"
	SolutionEarlyCheckIn      = "early_checkin"
	SolutionLateCheckOut      = "late_checkout"
	SolutionReallocation      = "upgrade_reallocation"
	SolutionPriceOptimization = "price_optimization"
)

// Solution priorities. Ranking is priority-first: any higher-priority
// solution sorts before any lower-priority one regardless of confidence.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
	PriorityInfo     = "info"
)

// PriorityWeight maps a priority to its ranking weight.
func PriorityWeight(priority string) int {
	switch priority {
	case PriorityCritical:
		return 5
	case PriorityHigh:
		return 4
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 2
	case PriorityInfo:
		return 1
	default:
		return 1
	}
}

// BookingRequest is a transient search request; it is never persisted.
type BookingRequest struct {
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	PreferredTier Tier      `json:"preferred_tier,omitempty"`
	MaxBudget     float64   `json:"max_budget,omitempty"`
	ClientID      int64     `json:"client_id,omitempty"`
	FlexibleDates bool      `json:"flexible_dates"`
	FlexibleDays  int       `json:"flexible_days"`
}

var (
	ErrInvalidDateRange = errors.New("check-out must be after check-in")
	ErrInvalidTier      = errors.New("unknown room tier")
)

// Validate rejects logically invalid requests before any search begins.
func (r *BookingRequest) Validate() error {
	if !r.CheckOut.After(r.CheckIn) {
		return ErrInvalidDateRange
	}
	if r.PreferredTier != "" && !r.PreferredTier.IsValid() {
		return ErrInvalidTier
	}
	return nil
}

// Nights returns the requested stay length.
func (r *BookingRequest) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Window returns the flexible-date window, falling back to the default.
func (r *BookingRequest) Window() int {
	if r.FlexibleDays > 0 {
		return r.FlexibleDays
	}
	return DefaultFlexibleDays
}

// RoomAssignment is one room/date slice of a solution. Perfect matches carry
// one assignment; split stays carry one per sub-interval.
type RoomAssignment struct {
	RoomID   int64     `json:"room_id"`
	RoomName string    `json:"room_name"`
	Tier     Tier      `json:"tier"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Nights   int       `json:"nights"`
	Price    float64   `json:"price"`
}

// ReallocationPlan describes a goodwill move of an existing guest to a
// better room, freeing their original room for the new request.
type ReallocationPlan struct {
	StayID     int64  `json:"stay_id"`
	ClientID   int64  `json:"client_id"`
	FromRoomID int64  `json:"from_room_id"`
	FromRoom   string `json:"from_room"`
	ToRoomID   int64  `json:"to_room_id"`
	ToRoom     string `json:"to_room"`
}

// Solution is one ranked recommendation. Transient, owned by the search
// call that produced it.
type Solution struct {
	Type             string            `json:"type"`
	Priority         string            `json:"priority"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Assignments      []RoomAssignment  `json:"assignments"`
	EstimatedPrice   float64           `json:"estimated_price"`
	Confidence       float64           `json:"confidence"`
	Savings          float64           `json:"savings,omitempty"`
	UpgradeBenefit   string            `json:"upgrade_benefit,omitempty"`
	UpgradeCost      float64           `json:"upgrade_cost,omitempty"`
	AddOnCost        float64           `json:"add_on_cost,omitempty"`
	DateOffset       int               `json:"date_offset,omitempty"`
	Reallocation     *ReallocationPlan `json:"reallocation,omitempty"`
	RequiresApproval bool              `json:"requires_approval,omitempty"`
}
