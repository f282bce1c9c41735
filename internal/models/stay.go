package models

import "time"

// Stay is one occupancy record on the ledger. CheckOut is nil for
// open-ended stays, which occupy their room indefinitely from CheckIn.
type Stay struct {
	ID        int64      `json:"id"`
	Ref       string     `json:"ref"`
	ClientID  int64      `json:"client_id"`
	RoomID    int64      `json:"room_id"`
	CheckIn   time.Time  `json:"check_in"`
	CheckOut  *time.Time `json:"check_out,omitempty"`
	Status    string     `json:"status"`
	Channel   string     `json:"channel"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Nights returns the stay length in nights, or 0 for open-ended stays.
func (s *Stay) Nights() int {
	if s.CheckOut == nil {
		return 0
	}
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

type Client struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID     int64     `json:"id"`
	StayID int64     `json:"stay_id"`
	Amount float64   `json:"amount"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paid_at"`
}

// SpendingProfile summarizes a client's historical spend across finalized
// stays, used by the price-optimization pass.
type SpendingProfile struct {
	ClientID        int64   `json:"client_id"`
	TotalSpent      float64 `json:"total_spent"`
	TotalNights     int64   `json:"total_nights"`
	AveragePerNight float64 `json:"average_per_night"`
	StayCount       int64   `json:"stay_count"`
}
