package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"lec-simulator/internal/model"
)

// Household is one metered apartment. Load and PV are hourly kWh aligned to Dataset.Timestamps.
type Household struct {
	ID   string    `json:"id"`
	Load []float64 `json:"load"`
	PV   []float64 `json:"pv"`
}

// Dataset is the read-only historical input shared by all runs of a process.
type Dataset struct {
	Timestamps []time.Time `json:"timestamps"`
	Households []Household `json:"households"`
	Warnings   []string    `json:"-"`
}

// Provider supplies the dataset. Implementations may block on I/O.
type Provider interface {
	Load(ctx context.Context) (*Dataset, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*Dataset, error)

func (f ProviderFunc) Load(ctx context.Context) (*Dataset, error) { return f(ctx) }

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Timestamps)
}

// Validate checks that every series is aligned with the timestamps.
func (d *Dataset) Validate() error {
	if d == nil {
		return errors.New("dataset is nil")
	}
	if len(d.Timestamps) == 0 {
		return errors.New("dataset has no timestamps")
	}
	seen := make(map[string]struct{}, len(d.Households))
	for _, h := range d.Households {
		if _, dup := seen[h.ID]; dup {
			return fmt.Errorf("duplicate household id %q", h.ID)
		}
		seen[h.ID] = struct{}{}
		if len(h.Load) != len(d.Timestamps) || len(h.PV) != len(d.Timestamps) {
			return fmt.Errorf("household %q: series length mismatch (load=%d pv=%d timestamps=%d)",
				h.ID, len(h.Load), len(h.PV), len(d.Timestamps))
		}
	}
	return nil
}

// FilterSeason returns the rows of the season's months. December sorts before January
// so a winter horizon reads Dec, Jan, Feb. The receiver is not modified.
func (d *Dataset) FilterSeason(season model.Season) *Dataset {
	idx := make([]int, 0, len(d.Timestamps))
	for i, ts := range d.Timestamps {
		if season.Contains(ts) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ma := int(d.Timestamps[idx[a]].Month()) % 12
		mb := int(d.Timestamps[idx[b]].Month()) % 12
		if ma != mb {
			return ma < mb
		}
		return d.Timestamps[idx[a]].Before(d.Timestamps[idx[b]])
	})

	out := &Dataset{
		Timestamps: make([]time.Time, len(idx)),
		Households: make([]Household, len(d.Households)),
		Warnings:   append([]string(nil), d.Warnings...),
	}
	for j, i := range idx {
		out.Timestamps[j] = d.Timestamps[i]
	}
	for k, h := range d.Households {
		nh := Household{ID: h.ID, Load: make([]float64, len(idx)), PV: make([]float64, len(idx))}
		for j, i := range idx {
			nh.Load[j] = h.Load[i]
			nh.PV[j] = h.PV[i]
		}
		out.Households[k] = nh
	}
	return out
}
