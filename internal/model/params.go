package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinCommunitySize = 5
	MaxCommunitySize = 100

	// HouseholdsPerBuilding is the number of apartments aggregated into one building.
	HouseholdsPerBuilding = 6
)

// Season selects which months of the dataset are simulated.
type Season string

const (
	SeasonSummer Season = "sum"
	SeasonWinter Season = "win"
	SeasonAutumn Season = "aut"
	SeasonSpring Season = "spr"
)

// Seasons lists every valid season in a stable order.
var Seasons = []Season{SeasonSummer, SeasonWinter, SeasonAutumn, SeasonSpring}

func ParseSeason(s string) (Season, error) {
	switch Season(strings.ToLower(strings.TrimSpace(s))) {
	case SeasonSummer:
		return SeasonSummer, nil
	case SeasonWinter:
		return SeasonWinter, nil
	case SeasonAutumn:
		return SeasonAutumn, nil
	case SeasonSpring:
		return SeasonSpring, nil
	}
	return "", fmt.Errorf("unknown season %q (want one of sum, win, aut, spr)", s)
}

// Months returns the calendar months covered by the season.
// Winter lists December first so a Dec..Feb horizon reads chronologically.
func (s Season) Months() []time.Month {
	switch s {
	case SeasonSummer:
		return []time.Month{time.June, time.July, time.August}
	case SeasonWinter:
		return []time.Month{time.December, time.January, time.February}
	case SeasonAutumn:
		return []time.Month{time.September, time.October, time.November}
	case SeasonSpring:
		return []time.Month{time.March, time.April, time.May}
	}
	return nil
}

// Contains reports whether t falls in one of the season's months.
func (s Season) Contains(t time.Time) bool {
	m := t.Month()
	for _, sm := range s.Months() {
		if sm == m {
			return true
		}
	}
	return false
}

// SimulationParameters is the user-facing input of a single run.
type SimulationParameters struct {
	CommunitySize int    `json:"community_size"`
	Season        Season `json:"season"`
	PVPercentage  int    `json:"pv_percentage"`
	SDPercentage  int    `json:"sd_percentage"`
	WithBattery   bool   `json:"with_battery"`

	// Seed drives every random draw of the run.
	Seed uint64 `json:"seed"`
}

// Validate returns one message per violated constraint. An empty slice means valid.
func (p SimulationParameters) Validate() []string {
	var problems []string
	if p.CommunitySize < MinCommunitySize || p.CommunitySize > MaxCommunitySize {
		problems = append(problems, fmt.Sprintf("community_size must be in [%d, %d], got %d", MinCommunitySize, MaxCommunitySize, p.CommunitySize))
	}
	if _, err := ParseSeason(string(p.Season)); err != nil {
		problems = append(problems, err.Error())
	}
	if p.PVPercentage < 0 || p.PVPercentage > 100 {
		problems = append(problems, fmt.Sprintf("pv_percentage must be in [0, 100], got %d", p.PVPercentage))
	}
	if p.SDPercentage < 0 || p.SDPercentage > 100 {
		problems = append(problems, fmt.Sprintf("sd_percentage must be in [0, 100], got %d", p.SDPercentage))
	}
	return problems
}

// HouseholdsRequired is the minimum dataset size for the requested community.
func (p SimulationParameters) HouseholdsRequired() int {
	return p.CommunitySize * HouseholdsPerBuilding
}
