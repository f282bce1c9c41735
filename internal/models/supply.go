package models

import "time"

// Supply is a consumable inventory line. CurrentStock never goes negative
// and is only mutated through the deduction/return paths.
type Supply struct {
	ID           int64     `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Category     string    `yaml:"category" json:"category"`
	CurrentStock int64     `yaml:"current_stock" json:"current_stock"`
	MinimumStock int64     `yaml:"minimum_stock" json:"minimum_stock"`
	UnitPrice    float64   `yaml:"unit_price" json:"unit_price"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at"`
}

// IsLowStock reports whether stock is at or below the configured minimum.
func (s *Supply) IsLowStock() bool {
	return s.CurrentStock <= s.MinimumStock
}

// SupplyUsage records one deduction, return or correction against a supply.
// Records are append-mostly: after creation only the verification fields
// change, and corrections are written as new Adjustment records pointing at
// the original via AdjustmentOf.
type SupplyUsage struct {
	ID               int64      `json:"id"`
	SupplyID         int64      `json:"supply_id"`
	StayID           *int64     `json:"stay_id,omitempty"`
	RoomID           *int64     `json:"room_id,omitempty"`
	QuantityUsed     int64      `json:"quantity_used"`
	QuantityExpected *int64     `json:"quantity_expected,omitempty"`
	UsageType        string     `json:"usage_type"`
	CostPerUnit      float64    `json:"cost_per_unit"`
	TotalCost        float64    `json:"total_cost"`
	IsConfirmed      bool       `json:"is_confirmed"`
	VerifiedBy       *int64     `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	AdjustmentOf     *int64     `json:"adjustment_of,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Variance is quantity used minus quantity expected, 0 when no expectation
// was recorded.
func (u *SupplyUsage) Variance() int64 {
	if u.QuantityExpected == nil {
		return 0
	}
	return u.QuantityUsed - *u.QuantityExpected
}
