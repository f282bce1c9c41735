package engine

import (
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/models"
)

// Base nightly rates per tier, in the business currency unit.
var baseNightlyRates = map[models.Tier]float64{
	models.TierEconomy:  2000,
	models.TierStandard: 3000,
	models.TierSuperior: 4500,
	models.TierSuite:    6000,
}

const defaultNightlyRate = 3000

// High-season months multiply the nightly rate.
var highSeasonMonths = map[time.Month]bool{
	time.December: true,
	time.January:  true,
	time.February: true,
	time.July:     true,
	time.August:   true,
}

const highSeasonMultiplier = 1.2

// Duration discount bands compound: a 14-night stay gets both reductions.
const (
	weekDiscountNights     = 7
	weekDiscountFactor     = 0.90
	fortnightDiscountNight = 14
	fortnightDiscountRate  = 0.95
)

// EstimatePrice returns the deterministic price estimate for a tier over
// [checkIn, checkOut): base nightly rate, duration discounts, seasonal
// multiplier, times nights. Identical inputs always yield identical output.
func EstimatePrice(tier models.Tier, checkIn, checkOut time.Time) float64 {
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights <= 0 {
		return 0
	}

	rate, ok := baseNightlyRates[tier]
	if !ok {
		rate = defaultNightlyRate
	}

	if nights >= weekDiscountNights {
		rate *= weekDiscountFactor
	}
	if nights >= fortnightDiscountNight {
		rate *= fortnightDiscountRate
	}

	if highSeasonMonths[checkIn.Month()] {
		rate *= highSeasonMultiplier
	}

	return rate * float64(nights)
}
