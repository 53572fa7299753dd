// Package tariff maps timestamps to energy prices and tiers.
package tariff

import (
	"fmt"
	"time"

	"battery-sizing/internal/model"
)

// Tier is the pricing band a timestamp falls into.
type Tier string

const (
	TierPeak   Tier = "peak"
	TierHigh   Tier = "high"
	TierFlat   Tier = "flat"
	TierValley Tier = "valley"
	TierHourly Tier = "hourly"
)

// Classifier prices a timestamp. Implementations are pure.
type Classifier interface {
	PriceAt(t time.Time) (float64, Tier)
}

// New builds the classifier selected by the pricing mode.
func New(p model.Pricing) (Classifier, error) {
	switch p.Mode {
	case model.PricingHourly:
		return NewHourly(p.Hourly)
	case model.PricingSeasonal:
		return NewSeasonal(p.Tiers)
	default:
		return nil, &model.ConfigurationError{Field: "pricing.mode", Reason: fmt.Sprintf("unknown mode %q", p.Mode)}
	}
}

// Hourly prices by hour of day.
type Hourly struct {
	prices [24]float64
}

// NewHourly fails if any hour 0-23 is missing, out of range or negative.
func NewHourly(prices map[int]float64) (*Hourly, error) {
	if err := (model.Pricing{Mode: model.PricingHourly, Hourly: prices}).Validate(); err != nil {
		return nil, err
	}
	h := &Hourly{}
	for hour, price := range prices {
		h.prices[hour] = price
	}
	return h, nil
}

func (h *Hourly) PriceAt(t time.Time) (float64, Tier) {
	return h.prices[t.Hour()], TierHourly
}

// Seasonal prices by the fixed month/hour band table.
type Seasonal struct {
	tiers model.TierPrices
}

func NewSeasonal(tiers model.TierPrices) (*Seasonal, error) {
	if err := (model.Pricing{Mode: model.PricingSeasonal, Tiers: tiers}).Validate(); err != nil {
		return nil, err
	}
	return &Seasonal{tiers: tiers}, nil
}

func (s *Seasonal) PriceAt(t time.Time) (float64, Tier) {
	tier := TierAt(t)
	return s.price(tier), tier
}

func (s *Seasonal) price(tier Tier) float64 {
	switch tier {
	case TierPeak:
		return s.tiers.Peak
	case TierHigh:
		return s.tiers.High
	case TierFlat:
		return s.tiers.Flat
	default:
		return s.tiers.Valley
	}
}

// Band tables, indexed by hour of day.
var (
	summerBands = [24]Tier{
		TierValley, TierValley, TierValley, TierValley, TierValley, TierValley, TierValley, TierValley,
		TierFlat,
		TierHigh, TierHigh, TierHigh,
		TierFlat, TierFlat,
		TierPeak, TierPeak, TierPeak,
		TierHigh, TierHigh, TierHigh, TierHigh, TierHigh,
		TierFlat, TierFlat,
	}
	otherBands = [24]Tier{
		TierValley, TierValley, TierValley, TierValley, TierValley, TierValley, TierValley, TierValley,
		TierFlat,
		TierHigh, TierHigh, TierHigh,
		TierFlat, TierFlat,
		TierFlat, TierFlat, TierFlat,
		TierHigh, TierHigh, TierHigh, TierHigh, TierHigh,
		TierFlat, TierFlat,
	}
)

// IsSummer reports whether the month carries the afternoon peak band.
func IsSummer(m time.Month) bool {
	return m == time.July || m == time.August
}

// TierAt classifies a timestamp with the seasonal band table.
func TierAt(t time.Time) Tier {
	if IsSummer(t.Month()) {
		return summerBands[t.Hour()]
	}
	return otherBands[t.Hour()]
}

// Table returns the band table: "summer" and "other", 24 hours each.
func Table() map[string][]Tier {
	return map[string][]Tier{
		"summer": append([]Tier(nil), summerBands[:]...),
		"other":  append([]Tier(nil), otherBands[:]...),
	}
}

// Series prices every timestamp.
func Series(c Classifier, times []time.Time) ([]float64, []Tier) {
	prices := make([]float64, len(times))
	tiers := make([]Tier, len(times))
	for i, t := range times {
		prices[i], tiers[i] = c.PriceAt(t)
	}
	return prices, tiers
}
