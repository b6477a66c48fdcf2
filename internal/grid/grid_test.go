package grid

import (
	"testing"

	"lec-simulator/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScheduleClearingPrice(t *testing.T) {
	s := DefaultSchedule()
	require.NoError(t, s.Validate())

	tr := s.At(model.SeasonSummer, 12)
	assert.Equal(t, 21.12, tr.PurchaseCt)
	assert.Equal(t, 4.6, tr.FeedInCt)
	assert.InDelta(t, 12.86, tr.ClearingPrice(), 1e-12)
}

func TestClearingPriceWithinTariffs(t *testing.T) {
	s := Schedule{
		Base:    Tariff{PurchaseCt: 30, FeedInCt: 8},
		Seasons: map[model.Season]Tariff{model.SeasonWinter: {PurchaseCt: 35, FeedInCt: 6}},
		OffPeak: &OffPeakWindow{StartHour: 22, EndHour: 6, PurchaseCt: 18},
	}
	require.NoError(t, s.Validate())

	for _, season := range model.Seasons {
		for h := 0; h < 24; h++ {
			tr := s.At(season, h)
			p := tr.ClearingPrice()
			assert.GreaterOrEqual(t, p, tr.FeedInCt)
			assert.LessOrEqual(t, p, tr.PurchaseCt)
		}
	}
	assert.Equal(t, 18.0, s.At(model.SeasonWinter, 23).PurchaseCt)
	assert.Equal(t, 18.0, s.At(model.SeasonSummer, 5).PurchaseCt)
	assert.Equal(t, 35.0, s.At(model.SeasonWinter, 6).PurchaseCt)
	assert.Equal(t, 6.0, s.At(model.SeasonWinter, 6).FeedInCt)
}

func TestScheduleValidateRejectsInvertedTariffs(t *testing.T) {
	s := Schedule{Base: Tariff{PurchaseCt: 3, FeedInCt: 5}}
	assert.Error(t, s.Validate())

	s = Schedule{Base: Tariff{PurchaseCt: 20, FeedInCt: 5}, OffPeak: &OffPeakWindow{StartHour: 0, EndHour: 6, PurchaseCt: 4}}
	assert.Error(t, s.Validate(), "off-peak purchase below feed-in")
}

func TestSettle(t *testing.T) {
	tr := Tariff{PurchaseCt: 20, FeedInCt: 5}

	s := Settle(2, 0, tr)
	assert.Equal(t, Settlement{ExportKWh: 2, CostCt: -10}, s)

	s = Settle(0, 1.5, tr)
	assert.Equal(t, Settlement{ImportKWh: 1.5, CostCt: 30}, s)
}

func TestAccount(t *testing.T) {
	var a Account
	for i := 0; i < 1000; i++ {
		a.Charge(0.1, 21.12)
	}
	a.Credit(10, 4.6)

	assert.Equal(t, "2066", a.Cents().String())
	assert.Equal(t, 20.66, a.Currency())

	var zero Account
	zero.Charge(0, 99)
	assert.Zero(t, zero.Currency())
}
