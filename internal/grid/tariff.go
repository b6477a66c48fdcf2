// Package grid prices and settles the energy a community exchanges with the public grid.
package grid

import (
	"errors"
	"fmt"

	"lec-simulator/internal/model"
)

// Tariff is the grid price pair for one hour, in ct/kWh.
type Tariff struct {
	PurchaseCt float64 `yaml:"purchase_ct" json:"purchase_ct"`
	FeedInCt   float64 `yaml:"feed_in_ct" json:"feed_in_ct"`
}

// ClearingPrice is the uniform internal market price: the mean of feed-in and purchase.
func (t Tariff) ClearingPrice() float64 {
	return (t.PurchaseCt + t.FeedInCt) / 2
}

func (t Tariff) Validate() error {
	if t.FeedInCt < 0 {
		return errors.New("feed-in tariff must be >= 0")
	}
	if t.PurchaseCt < t.FeedInCt {
		return fmt.Errorf("purchase tariff %.2f must not be below feed-in tariff %.2f", t.PurchaseCt, t.FeedInCt)
	}
	return nil
}

// OffPeakWindow lowers the purchase tariff between StartHour (inclusive) and EndHour
// (exclusive). The window may wrap midnight, e.g. 22 -> 6.
type OffPeakWindow struct {
	StartHour  int     `yaml:"start_hour" json:"start_hour"`
	EndHour    int     `yaml:"end_hour" json:"end_hour"`
	PurchaseCt float64 `yaml:"purchase_ct" json:"purchase_ct"`
}

func (w OffPeakWindow) contains(hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// Schedule resolves the tariff for a season and hour of day.
type Schedule struct {
	Base    Tariff                  `yaml:"base" json:"base"`
	Seasons map[model.Season]Tariff `yaml:"seasons,omitempty" json:"seasons,omitempty"`
	OffPeak *OffPeakWindow          `yaml:"off_peak,omitempty" json:"off_peak,omitempty"`
}

// DefaultSchedule uses flat residential tariffs of 21.12 ct/kWh purchase and 4.6 ct/kWh feed-in.
func DefaultSchedule() Schedule {
	return Schedule{Base: Tariff{PurchaseCt: 21.12, FeedInCt: 4.6}}
}

func (s Schedule) At(season model.Season, hour int) Tariff {
	t := s.Base
	if st, ok := s.Seasons[season]; ok {
		t = st
	}
	if s.OffPeak != nil && s.OffPeak.contains(hour) {
		t.PurchaseCt = s.OffPeak.PurchaseCt
	}
	return t
}

// Validate checks every tariff the schedule can produce.
func (s Schedule) Validate() error {
	for _, season := range model.Seasons {
		for h := 0; h < 24; h++ {
			if err := s.At(season, h).Validate(); err != nil {
				return fmt.Errorf("season %s hour %d: %w", season, h, err)
			}
		}
	}
	if w := s.OffPeak; w != nil {
		if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 24 {
			return fmt.Errorf("off-peak window %d-%d out of range", w.StartHour, w.EndHour)
		}
	}
	return nil
}
