package grid

import "github.com/shopspring/decimal"

// Settlement resolves a building's unmatched market position against the grid.
type Settlement struct {
	ExportKWh float64
	ImportKWh float64
	// CostCt is import cost minus export revenue.
	CostCt float64
}

// Settle exports the unmatched offer at feed-in and imports the unmatched request at purchase.
// The grid is an unconstrained counterparty, so the hour always closes.
func Settle(offer, request float64, t Tariff) Settlement {
	s := Settlement{}
	if offer > 0 {
		s.ExportKWh = offer
	}
	if request > 0 {
		s.ImportKWh = request
	}
	s.CostCt = s.ImportKWh*t.PurchaseCt - s.ExportKWh*t.FeedInCt
	return s
}

var hundred = decimal.NewFromInt(100)

// Account accumulates money in ct with decimal arithmetic so long horizons do not drift.
type Account struct {
	ct decimal.Decimal
}

// Charge books a cost of kwh at ctPerKWh.
func (a *Account) Charge(kwh, ctPerKWh float64) {
	if kwh == 0 {
		return
	}
	a.ct = a.ct.Add(decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(ctPerKWh)))
}

// Credit books revenue of kwh at ctPerKWh.
func (a *Account) Credit(kwh, ctPerKWh float64) {
	if kwh == 0 {
		return
	}
	a.ct = a.ct.Sub(decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(ctPerKWh)))
}

func (a Account) Cents() decimal.Decimal {
	return a.ct
}

// Currency is the balance in currency units (ct / 100), rounded to 1e-6.
func (a Account) Currency() float64 {
	return a.ct.Div(hundred).Round(6).InexactFloat64()
}
