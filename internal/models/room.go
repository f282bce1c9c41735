package models

import "time"

// Tier is the ordered room category. Higher level means a better room and a
// higher base rate; upgrades only ever move up the ordering.
type Tier string

const (
	TierEconomy  Tier = "economy"
	TierStandard Tier = "standard"
	TierSuperior Tier = "superior"
	TierSuite    Tier = "suite"
)

var tierOrder = []Tier{TierEconomy, TierStandard, TierSuperior, TierSuite}

// Level returns the position of the tier in the ordering, or -1 for an
// unknown tier.
func (t Tier) Level() int {
	for i, known := range tierOrder {
		if known == t {
			return i
		}
	}
	return -1
}

func (t Tier) IsValid() bool {
	return t.Level() >= 0
}

// TiersAbove returns the tiers strictly above t, lowest first.
func TiersAbove(t Tier) []Tier {
	level := t.Level()
	if level < 0 {
		return nil
	}
	return tierOrder[level+1:]
}

type Room struct {
	ID        int64     `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Tier      Tier      `yaml:"tier" json:"tier"`
	Status    string    `yaml:"status" json:"status"`
	SortOrder int64     `yaml:"sort_order" json:"sort_order"`
	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// PackageItem is one (room, supply) line of a room's consumable package,
// built by a single join at the data-access boundary. Unique per
// (room, supply).
type PackageItem struct {
	RoomID      int64   `yaml:"-" json:"room_id"`
	SupplyID    int64   `yaml:"supply_id" json:"supply_id"`
	SupplyName  string  `yaml:"-" json:"supply_name"`
	Quantity    int64   `yaml:"quantity" json:"quantity"`
	IsMandatory bool    `yaml:"is_mandatory" json:"is_mandatory"`
	UsageType   string  `yaml:"usage_type" json:"usage_type"`
	UnitPrice   float64 `yaml:"-" json:"unit_price"`
}
