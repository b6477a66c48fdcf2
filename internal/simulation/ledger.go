package simulation

import (
	"time"

	"lec-simulator/internal/metrics"
	"lec-simulator/internal/model"
)

// LedgerRow is the community-wide account of one simulated hour.
// This is the primary artifact for "what happened" in a run.
type LedgerRow struct {
	Index int

	Start time.Time
	End   time.Time

	PurchaseCt    float64
	FeedInCt      float64
	ClearingPrice float64

	Production      float64
	Consumption     float64
	SelfConsumption float64

	Action    model.Action
	Charge    float64
	Discharge float64
	SOC       float64

	Offered   float64
	Requested float64
	Traded    float64

	GridImport float64
	GridExport float64

	// CumCost is the community cost up to and including this hour, in currency units.
	CumCost float64
}

// Outcome is everything a finished run produces.
type Outcome struct {
	Params    model.SimulationParameters
	Result    *metrics.Result
	Ledger    []LedgerRow
	Buildings []model.Building
	Hours     int
}
