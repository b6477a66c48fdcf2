// Package metrics accumulates the hourly outcomes of a run into its final result.
package metrics

import (
	"lec-simulator/internal/analysis"
	"lec-simulator/internal/grid"
	"lec-simulator/internal/market"
	"lec-simulator/internal/model"

	"gonum.org/v1/gonum/floats"
)

// Aggregator folds hourly balances into horizon totals. It is owned by a single run.
type Aggregator struct {
	n   int
	ind IndividualMetrics

	energy EnergyMetrics
	mkt    MarketMetrics

	tradeValueCt float64
	cost         grid.Account
	costCt       []float64

	net *network

	loadSum   []float64
	genSum    []float64
	hourCount []float64
}

func NewAggregator(buildings []model.Building) *Aggregator {
	n := len(buildings)
	a := &Aggregator{
		n:         n,
		costCt:    make([]float64, n),
		net:       newNetwork(n),
		loadSum:   make([]float64, 24),
		genSum:    make([]float64, 24),
		hourCount: make([]float64, 24),
		ind: IndividualMetrics{
			Consumption:           make([]float64, n),
			Production:            make([]float64, n),
			SelfConsumptionVolume: make([]float64, n),
			GridImport:            make([]float64, n),
			GridExport:            make([]float64, n),
			MarketPurchaseVolume:  make([]float64, n),
			MarketSellVolume:      make([]float64, n),
			ChargingVolume:        make([]float64, n),
			DischargingVolume:     make([]float64, n),
			Offered:               make([]float64, n),
			Requested:             make([]float64, n),
			HasPV:                 make([]bool, n),
			HasBattery:            make([]bool, n),
			HasSmartDevices:       make([]bool, n),
		},
	}
	for i, b := range buildings {
		a.ind.HasPV[i] = b.HasPV
		a.ind.HasBattery[i] = b.HasBattery
		a.ind.HasSmartDevices[i] = b.HasSmartDevices
	}
	return a
}

// Observe records one settled hour. balances are indexed by building id.
func (a *Aggregator) Observe(h model.Hour, t grid.Tariff, balances []model.HourlyBalance, c market.Clearing) {
	var load, gen, purchase, sell, imp, exp float64
	for _, b := range balances {
		i := b.BuildingID
		a.ind.Consumption[i] += b.Consumption
		a.ind.Production[i] += b.Production
		a.ind.SelfConsumptionVolume[i] += b.SelfConsumption
		a.ind.GridImport[i] += b.GridImport
		a.ind.GridExport[i] += b.GridExport
		a.ind.MarketPurchaseVolume[i] += b.MarketPurchase
		a.ind.MarketSellVolume[i] += b.MarketSell
		a.ind.ChargingVolume[i] += b.Charge
		a.ind.DischargingVolume[i] += b.Discharge
		a.ind.Offered[i] += b.Offer
		a.ind.Requested[i] += b.Request

		a.costCt[i] += b.MarketPurchase*c.Price + b.GridImport*t.PurchaseCt -
			b.MarketSell*c.Price - b.GridExport*t.FeedInCt

		a.energy.SelfConsumptionVolume += b.SelfConsumption
		a.energy.TotalChargingVolume += b.Charge
		a.energy.TotalDischargingVolume += b.Discharge
		a.net.addGrid(i, b.GridExport, b.GridImport)

		load += b.Consumption
		gen += b.Production
		purchase += b.MarketPurchase
		sell += b.MarketSell
		imp += b.GridImport
		exp += b.GridExport
	}
	a.net.addTrades(c.Trades)

	a.energy.TotalConsumption += load
	a.energy.TotalProduction += gen
	a.energy.TotalGridImport += imp
	a.energy.TotalGridExport += exp
	a.energy.TradingVolume += c.Volume

	a.cost.Charge(purchase, c.Price)
	a.cost.Charge(imp, t.PurchaseCt)
	a.cost.Credit(sell, c.Price)
	a.cost.Credit(exp, t.FeedInCt)

	a.mkt.TotalOffered += c.TotalOffered
	a.mkt.TotalRequested += c.TotalRequested
	if c.Volume > 0 {
		a.mkt.ActiveHours++
		a.tradeValueCt += c.Volume * c.Price
	}

	if a.n > 0 {
		hod := h.Start.Hour()
		a.loadSum[hod] += load / float64(a.n)
		a.genSum[hod] += gen / float64(a.n)
		a.hourCount[hod]++
	}
}

// Cost is the community cost so far in currency units.
func (a *Aggregator) Cost() float64 {
	return a.cost.Currency()
}

// Finalize builds the result. counterfactual is the aggregator of the same horizon
// settled without a market; when nil the community is its own counterfactual.
func (a *Aggregator) Finalize(counterfactual *Aggregator, diag *Diagnostics) *Result {
	if counterfactual == nil {
		counterfactual = a
	}
	r := &Result{
		EnergyMetrics:     a.energy,
		MarketMetrics:     a.mkt,
		IndividualMetrics: a.ind,
		TradingNetwork:    a.net.snapshot(),
		Errors:            []string{},
	}

	e := &r.EnergyMetrics
	if e.TotalConsumption > 0 {
		e.Autarky = 1 - e.TotalGridImport/e.TotalConsumption
	}
	if e.TotalProduction > 0 {
		e.SelfConsumptionRate = 1 - e.TotalGridExport/e.TotalProduction
	}

	m := &r.MarketMetrics
	m.TradingVolume = e.TradingVolume
	if m.TotalRequested > 0 {
		m.RatioFulfilledDemand = m.TradingVolume / m.TotalRequested
	}
	if m.TotalOffered > 0 {
		m.RatioSoldSupply = m.TradingVolume / m.TotalOffered
	}
	if m.TradingVolume > 0 {
		m.AverageClearingPrice = a.tradeValueCt / m.TradingVolume
	}

	r.CostMetrics = CostMetrics{
		CostWithLEC:    a.cost.Currency(),
		CostWithoutLEC: counterfactual.cost.Currency(),
	}
	r.CostMetrics.Savings = r.CostMetrics.CostWithoutLEC - r.CostMetrics.CostWithLEC

	r.IndividualMetrics.CostWithLEC = toCurrency(a.costCt)
	r.IndividualMetrics.CostWithoutLEC = toCurrency(counterfactual.costCt)

	r.Profiles = Profiles{
		LoadProfile: meanPerHour(a.loadSum, a.hourCount),
		GenProfile:  meanPerHour(a.genSum, a.hourCount),
	}

	r.Distributions = analysis.RatioDistributions(
		a.ind.MarketSellVolume, a.ind.Offered,
		a.ind.MarketPurchaseVolume, a.ind.Requested,
	)

	if diag != nil {
		r.Warnings = diag.Warnings()
	} else {
		r.Warnings = []string{}
	}
	return r
}

func toCurrency(ct []float64) []float64 {
	out := make([]float64, len(ct))
	copy(out, ct)
	floats.Scale(0.01, out)
	return out
}

func meanPerHour(sums, counts []float64) []float64 {
	out := make([]float64, len(sums))
	copy(out, sums)
	safe := make([]float64, len(counts))
	for i, c := range counts {
		safe[i] = c
		if c == 0 {
			safe[i] = 1
		}
	}
	floats.Div(out, safe)
	return out
}
