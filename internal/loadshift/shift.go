// Package loadshift moves deferrable appliance load of smart-device buildings from
// community demand peaks into hours of high local generation.
package loadshift

import (
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"lec-simulator/internal/model"
)

// Config holds the appliance model. Amounts are kWh per building and shift event.
type Config struct {
	WindowStartHour int     `yaml:"window_start_hour"`
	WindowEndHour   int     `yaml:"window_end_hour"`
	Peaks           int     `yaml:"peaks"`
	MinProminence   float64 `yaml:"min_prominence"`
	MinDistance     int     `yaml:"min_distance"`
	TargetHours     int     `yaml:"target_hours"`

	// DailyShiftKWh is moved off the highest peak every day (dishwasher).
	DailyShiftKWh float64 `yaml:"daily_shift_kwh"`
	// PeriodicShiftKWh is moved off the second peak on days whose day-of-month is
	// divisible by PeriodicEveryDays (washing machine).
	PeriodicShiftKWh  float64 `yaml:"periodic_shift_kwh"`
	PeriodicEveryDays int     `yaml:"periodic_every_days"`
}

func DefaultConfig() Config {
	return Config{
		WindowStartHour:   8,
		WindowEndHour:     22,
		Peaks:             3,
		MinProminence:     0.2,
		MinDistance:       3,
		TargetHours:       3,
		DailyShiftKWh:     0.64,
		PeriodicShiftKWh:  0.5,
		PeriodicEveryDays: 3,
	}
}

func (c Config) Validate() error {
	if c.WindowStartHour < 0 || c.WindowEndHour > 24 || c.WindowStartHour >= c.WindowEndHour {
		return errors.New("load shift window must satisfy 0 <= start < end <= 24")
	}
	if c.Peaks < 1 || c.TargetHours < 1 {
		return errors.New("peaks and target_hours must be >= 1")
	}
	if c.MinDistance < 1 {
		return errors.New("min_distance must be >= 1")
	}
	if c.MinProminence < 0 || c.DailyShiftKWh < 0 || c.PeriodicShiftKWh < 0 || c.PeriodicEveryDays < 0 {
		return errors.New("prominence, shift amounts and periodic_every_days must be >= 0")
	}
	return nil
}

// Stats summarizes what a Shift call moved.
type Stats struct {
	Days         int
	Events       int
	ShiftedKWh   float64
	ShiftedByBID map[int]float64
}

// Shift returns buildings with smart-device load rescheduled. Buildings without smart
// devices are returned as-is; shifted buildings get a fresh Load slice so the input is
// never mutated. Daily load sums are preserved per building and no hour goes negative.
func Shift(buildings []model.Building, ts []time.Time, cfg Config, rng *rand.Rand) ([]model.Building, Stats) {
	out := make([]model.Building, len(buildings))
	copy(out, buildings)
	stats := Stats{ShiftedByBID: map[int]float64{}}

	var smart []int
	for i, b := range out {
		if b.HasSmartDevices {
			out[i].Load = append([]float64(nil), b.Load...)
			smart = append(smart, i)
		}
	}
	if len(smart) == 0 {
		return out, stats
	}

	for _, day := range groupByDay(ts) {
		stats.Days++
		peaks, valleys := peakHours(out, ts, day, cfg)
		if len(peaks) == 0 {
			continue
		}
		targets := pvHours(out, day, cfg.TargetHours)
		if len(targets) == 0 {
			targets = valleys
		}
		if len(targets) == 0 {
			continue
		}

		move := func(from int, amount float64) {
			for _, bi := range smart {
				load := out[bi].Load
				if load[from] < amount {
					continue
				}
				to := targets[rng.IntN(len(targets))]
				if to == from {
					continue
				}
				load[from] -= amount
				load[to] += amount
				stats.Events++
				stats.ShiftedKWh += amount
				stats.ShiftedByBID[out[bi].ID] += amount
			}
		}

		move(peaks[0], cfg.DailyShiftKWh)

		if cfg.PeriodicEveryDays > 0 && ts[day[0]].Day()%cfg.PeriodicEveryDays == 0 {
			second := peaks[0]
			if len(peaks) > 1 {
				second = peaks[1]
			}
			move(second, cfg.PeriodicShiftKWh)
		}
	}
	return out, stats
}

// groupByDay returns the sample indices of each calendar day in order of first appearance.
func groupByDay(ts []time.Time) [][]int {
	type dayKey struct {
		Year  int
		Month time.Month
		Day   int
	}
	pos := map[dayKey]int{}
	var days [][]int
	for i, t := range ts {
		k := dayKey{t.Year(), t.Month(), t.Day()}
		j, ok := pos[k]
		if !ok {
			j = len(days)
			pos[k] = j
			days = append(days, nil)
		}
		days[j] = append(days[j], i)
	}
	return days
}

// peakHours finds the community demand peaks (highest first) and valleys within the
// allowed window of one day. Both are sample indices.
func peakHours(buildings []model.Building, ts []time.Time, day []int, cfg Config) (peaks, valleys []int) {
	var window []int
	for _, i := range day {
		h := ts[i].Hour()
		if h >= cfg.WindowStartHour && h <= cfg.WindowEndHour {
			window = append(window, i)
		}
	}
	if len(window) == 0 {
		return nil, nil
	}
	totals := make([]float64, len(window))
	for w, i := range window {
		for _, b := range buildings {
			totals[w] += b.Load[i]
		}
	}

	found := findPeaks(totals, cfg.MinProminence, cfg.MinDistance)
	if len(found) == 0 {
		found = make([]int, len(totals))
		for w := range found {
			found[w] = w
		}
	}
	sort.SliceStable(found, func(a, b int) bool { return totals[found[a]] > totals[found[b]] })
	for _, w := range found[:min(cfg.Peaks, len(found))] {
		peaks = append(peaks, window[w])
	}

	byLow := make([]int, len(totals))
	for w := range byLow {
		byLow[w] = w
	}
	sort.SliceStable(byLow, func(a, b int) bool { return totals[byLow[a]] < totals[byLow[b]] })
	for _, w := range byLow[:min(cfg.Peaks, len(byLow))] {
		valleys = append(valleys, window[w])
	}
	return peaks, valleys
}

// pvHours returns the n samples of the day with the highest community generation,
// or nil when the day has none.
func pvHours(buildings []model.Building, day []int, n int) []int {
	totals := make([]float64, len(day))
	hasPV := false
	for d, i := range day {
		for _, b := range buildings {
			totals[d] += b.PV[i]
		}
		if totals[d] > 0 {
			hasPV = true
		}
	}
	if !hasPV {
		return nil
	}
	order := make([]int, len(day))
	for d := range order {
		order[d] = d
	}
	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] > totals[order[b]] })
	var out []int
	for _, d := range order[:min(n, len(order))] {
		if totals[d] > 0 {
			out = append(out, day[d])
		}
	}
	return out
}
