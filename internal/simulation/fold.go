package simulation

import (
	"context"

	"lec-simulator/internal/grid"
	"lec-simulator/internal/market"
	"lec-simulator/internal/metrics"
	"lec-simulator/internal/model"
)

// ctxCheckEvery is how many hours the fold runs between cancellation checks.
const ctxCheckEvery = 168

// HourStep is everything one settled hour produces.
type HourStep struct {
	States   []model.BatteryState
	Balances []model.HourlyBalance
	Clearing market.Clearing
}

// StepHour settles hour h for every building. states holds the battery state of each
// building at the start of the hour and is not modified; the returned States are the
// states at the end of the hour. With withMarket false every residual goes to the grid.
func StepHour(buildings []model.Building, states []model.BatteryState, h model.Hour, t grid.Tariff, pairing market.Pairing, withMarket bool) HourStep {
	dt := h.DurationHours()
	out := HourStep{
		States:   make([]model.BatteryState, len(buildings)),
		Balances: make([]model.HourlyBalance, len(buildings)),
	}
	orders := make([]model.MarketOrder, len(buildings))

	for i, b := range buildings {
		prod, cons := b.PV[h.Index], b.Load[h.Index]
		surplus := prod - cons

		res := model.StepResult{Residual: surplus}
		out.States[i] = states[i]
		if b.HasBattery && b.Battery != nil {
			out.States[i], res = b.Battery.Step(states[i], surplus, dt)
		}

		bal := model.HourlyBalance{
			BuildingID:      b.ID,
			Production:      prod,
			Consumption:     cons,
			SelfConsumption: min(prod, cons),
			Charge:          res.ChargeKWh,
			Discharge:       res.DischargeKWh,
			SOCStart:        res.SOCStart,
			SOCEnd:          res.SOCEnd,
		}
		if res.Residual > 0 {
			bal.Offer = res.Residual
		} else {
			bal.Request = -res.Residual
		}
		out.Balances[i] = bal
		orders[i] = bal.Order()
	}

	if withMarket {
		out.Clearing = market.Clear(orders, t.ClearingPrice(), pairing)
	} else {
		out.Clearing = closedMarket(orders)
	}

	for i := range out.Balances {
		bal := &out.Balances[i]
		bal.MarketSell = out.Clearing.Sold[i]
		bal.MarketPurchase = out.Clearing.Bought[i]
		offer, request := out.Clearing.Residual(i, orders[i])
		s := grid.Settle(offer, request, t)
		bal.GridExport = s.ExportKWh
		bal.GridImport = s.ImportKWh
	}
	return out
}

// closedMarket books the orders without matching any of them.
func closedMarket(orders []model.MarketOrder) market.Clearing {
	c := market.Clearing{
		Sold:   make([]float64, len(orders)),
		Bought: make([]float64, len(orders)),
	}
	for _, o := range orders {
		c.TotalOffered += o.Offer()
		c.TotalRequested += o.Request()
	}
	return c
}

// fold drives StepHour across the horizon. The battery states are the only value
// carried from one hour to the next.
type fold struct {
	buildings []model.Building
	hours     []model.Hour
	season    model.Season
	tariffs   grid.Schedule
	pairing   market.Pairing
	market    bool
	ledger    bool
}

type foldResult struct {
	agg    *metrics.Aggregator
	ledger []LedgerRow
	states []model.BatteryState
}

func initialStates(buildings []model.Building) []model.BatteryState {
	states := make([]model.BatteryState, len(buildings))
	for i, b := range buildings {
		if b.HasBattery && b.Battery != nil {
			states[i] = b.Battery.InitialState()
		}
	}
	return states
}

func (f fold) run(ctx context.Context) (*foldResult, error) {
	out := &foldResult{
		agg:    metrics.NewAggregator(f.buildings),
		states: initialStates(f.buildings),
	}
	if f.ledger {
		out.ledger = make([]LedgerRow, 0, len(f.hours))
	}

	for _, h := range f.hours {
		if h.Index%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		t := f.tariffs.At(f.season, h.Start.Hour())
		step := StepHour(f.buildings, out.states, h, t, f.pairing, f.market)
		out.states = step.States
		out.agg.Observe(h, t, step.Balances, step.Clearing)
		if f.ledger {
			out.ledger = append(out.ledger, ledgerRow(h, t, step, out.agg.Cost()))
		}
	}
	return out, nil
}

func ledgerRow(h model.Hour, t grid.Tariff, step HourStep, cumCost float64) LedgerRow {
	row := LedgerRow{
		Index:         h.Index,
		Start:         h.Start,
		End:           h.End,
		PurchaseCt:    t.PurchaseCt,
		FeedInCt:      t.FeedInCt,
		ClearingPrice: step.Clearing.Price,
		Offered:       step.Clearing.TotalOffered,
		Requested:     step.Clearing.TotalRequested,
		Traded:        step.Clearing.Volume,
		CumCost:       cumCost,
	}
	for _, b := range step.Balances {
		row.Production += b.Production
		row.Consumption += b.Consumption
		row.SelfConsumption += b.SelfConsumption
		row.Charge += b.Charge
		row.Discharge += b.Discharge
		row.GridImport += b.GridImport
		row.GridExport += b.GridExport
	}
	for _, s := range step.States {
		row.SOC += s.SOC
	}
	row.Action = model.ActionFromFlows(row.Charge, row.Discharge)
	return row
}
