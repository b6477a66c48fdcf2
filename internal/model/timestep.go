package model

import "time"

// Hour identifies one step of the simulation horizon.
type Hour struct {
	Index int
	Start time.Time
	End   time.Time
}

func (h Hour) Duration() time.Duration {
	if h.End.IsZero() || !h.End.After(h.Start) {
		return time.Hour
	}
	return h.End.Sub(h.Start)
}

// DurationHours is the step length in hours (1 for hourly data).
func (h Hour) DurationHours() float64 {
	return h.Duration().Hours()
}

// HoursFromTimestamps builds the horizon from ordered interval starts.
// The last interval inherits the length of the previous one.
func HoursFromTimestamps(ts []time.Time) []Hour {
	out := make([]Hour, len(ts))
	for i, t := range ts {
		end := t.Add(time.Hour)
		if i+1 < len(ts) {
			end = ts[i+1]
		} else if i > 0 {
			end = t.Add(t.Sub(ts[i-1]))
		}
		// gaps in the data should not inflate a step beyond one hour
		if end.Sub(t) > time.Hour {
			end = t.Add(time.Hour)
		}
		out[i] = Hour{Index: i, Start: t, End: end}
	}
	return out
}
