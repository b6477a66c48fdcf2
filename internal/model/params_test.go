package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	for _, s := range Seasons {
		got, err := ParseSeason(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSeason(" WIN ")
	require.NoError(t, err)
	assert.Equal(t, SeasonWinter, got)

	_, err = ParseSeason("monsoon")
	assert.Error(t, err)
}

func TestSeasonMonths(t *testing.T) {
	assert.Equal(t, []time.Month{time.December, time.January, time.February}, SeasonWinter.Months())
	assert.True(t, SeasonSummer.Contains(time.Date(2021, time.July, 3, 12, 0, 0, 0, time.UTC)))
	assert.False(t, SeasonSummer.Contains(time.Date(2021, time.May, 31, 23, 0, 0, 0, time.UTC)))
}

func TestSimulationParametersValidate(t *testing.T) {
	valid := SimulationParameters{CommunitySize: 10, Season: SeasonSummer, PVPercentage: 50, SDPercentage: 0}
	assert.Empty(t, valid.Validate())
	assert.Equal(t, 60, valid.HouseholdsRequired())

	tests := []struct {
		name string
		p    SimulationParameters
		want int
	}{
		{"community too small", SimulationParameters{CommunitySize: 4, Season: SeasonSummer}, 1},
		{"community too large", SimulationParameters{CommunitySize: 101, Season: SeasonSummer}, 1},
		{"bad season", SimulationParameters{CommunitySize: 5, Season: "x"}, 1},
		{"percentages out of range", SimulationParameters{CommunitySize: 5, Season: SeasonWinter, PVPercentage: 101, SDPercentage: -1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.p.Validate(), tt.want)
		})
	}
}

func TestHoursFromTimestamps(t *testing.T) {
	base := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{base, base.Add(time.Hour), base.Add(5 * time.Hour)}

	hours := HoursFromTimestamps(ts)

	require.Len(t, hours, 3)
	assert.Equal(t, 1.0, hours[0].DurationHours())
	assert.Equal(t, 1.0, hours[1].DurationHours(), "gaps are capped at one hour")
	assert.Equal(t, 1.0, hours[2].DurationHours())
	assert.Equal(t, 2, hours[2].Index)
}

func TestHourlyBalanceOrder(t *testing.T) {
	h := HourlyBalance{BuildingID: 3, Offer: 2}
	assert.Equal(t, MarketOrder{BuildingID: 3, Net: 2}, h.Order())
	assert.Equal(t, 2.0, h.Order().Offer())
	assert.Zero(t, h.Order().Request())

	h = HourlyBalance{BuildingID: 1, Request: 1.5}
	assert.Equal(t, 1.5, h.Order().Request())
	assert.Equal(t, "B01", NodeName(1))
}
