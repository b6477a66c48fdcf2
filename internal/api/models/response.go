package models

import (
	"time"

	"lec-simulator/internal/metrics"
	"lec-simulator/internal/model"
)

// SimulateResponse is the simulation result plus the optional hourly ledger.
type SimulateResponse struct {
	*metrics.Result
	Ledger []LedgerRow `json:"ledger,omitempty"`
}

// LedgerRow represents one hour in the community ledger.
type LedgerRow struct {
	Index           int       `json:"index"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	PurchaseCt      float64   `json:"purchase_ct"`
	FeedInCt        float64   `json:"feed_in_ct"`
	ClearingPrice   float64   `json:"clearing_price_ct"`
	Production      float64   `json:"production"`
	Consumption     float64   `json:"consumption"`
	SelfConsumption float64   `json:"self_consumption"`
	Action          string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	Charge          float64   `json:"charge"`
	Discharge       float64   `json:"discharge"`
	SOC             float64   `json:"soc"`
	Offered         float64   `json:"offered"`
	Requested       float64   `json:"requested"`
	Traded          float64   `json:"traded"`
	GridImport      float64   `json:"grid_import"`
	GridExport      float64   `json:"grid_export"`
	CumCost         float64   `json:"cum_cost"`
}

// LedgerResponse is returned by GET /api/simulate/:id/ledger.
type LedgerResponse struct {
	ID     string      `json:"id"`
	Ledger []LedgerRow `json:"ledger"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name          string                     `json:"name"`
	ID            string                     `json:"id"`
	Parameters    model.SimulationParameters `json:"parameters"`
	EnergyMetrics metrics.EnergyMetrics      `json:"energy_metrics"`
	CostMetrics   metrics.CostMetrics        `json:"cost_metrics"`
	MarketMetrics metrics.MarketMetrics      `json:"market_metrics"`
	Warnings      []string                   `json:"warnings"`
}

// RankResponse lists the buildings of a run by savings.
type RankResponse struct {
	ID       string    `json:"id"`
	Rankings []Ranking `json:"rankings"`
}

type Ranking struct {
	Rank           int     `json:"rank"`
	Building       string  `json:"building"`
	CostWithLEC    float64 `json:"cost_with_lec"`
	CostWithoutLEC float64 `json:"cost_without_lec"`
	Savings        float64 `json:"savings"`
}

// ParametersResponse describes the accepted simulation inputs.
type ParametersResponse struct {
	Parameters []ParameterInfo `json:"parameters"`
	Seasons    []SeasonInfo    `json:"seasons"`
	Battery    BatteryInfo     `json:"battery"`
	Tariff     TariffInfo      `json:"tariff"`
	Pairing    string          `json:"pairing"`

	HouseholdsPerBuilding int `json:"households_per_building"`
}

// ParameterInfo describes a request parameter
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "int", "bool", "string"
	Description string `json:"description"`
	Min         *int   `json:"min,omitempty"`
	Max         *int   `json:"max,omitempty"`
	Default     any    `json:"default,omitempty"`
}

type SeasonInfo struct {
	ID     string `json:"id"`
	Months []int  `json:"months"`
}

type BatteryInfo struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	MinSOC              float64 `json:"min_soc"`
	MaxSOC              float64 `json:"max_soc"`
}

type TariffInfo struct {
	PurchaseCt      float64 `json:"purchase_ct"`
	FeedInCt        float64 `json:"feed_in_ct"`
	ClearingPriceCt float64 `json:"clearing_price_ct"`
}

// DatasetInfo summarizes the loaded household dataset.
type DatasetInfo struct {
	Households int            `json:"households"`
	Hours      int            `json:"hours"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Seasons    map[string]int `json:"season_hours"`
	MaxSize    int            `json:"max_community_size"`
	Warnings   []string       `json:"warnings"`
}

// ErrorResponse represents an error response. Detail is a human-readable summary;
// Errors lists every individual problem.
type ErrorResponse struct {
	Detail string   `json:"detail"`
	Code   string   `json:"code"`
	Errors []string `json:"errors"`
}
