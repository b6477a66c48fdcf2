package metrics

import (
	"encoding/json"

	"lec-simulator/internal/analysis"
)

// Result is the finalized outcome of one simulation run.
type Result struct {
	ID string `json:"id,omitempty"`

	EnergyMetrics     EnergyMetrics          `json:"energy_metrics"`
	CostMetrics       CostMetrics            `json:"cost_metrics"`
	MarketMetrics     MarketMetrics          `json:"market_metrics"`
	Profiles          Profiles               `json:"profiles"`
	TradingNetwork    TradingNetwork         `json:"trading_network"`
	IndividualMetrics IndividualMetrics      `json:"individual_metrics"`
	Distributions     analysis.Distributions `json:"distributions"`

	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// EnergyMetrics are community totals in kWh over the horizon.
type EnergyMetrics struct {
	TotalProduction        float64 `json:"total_production"`
	TotalConsumption       float64 `json:"total_consumption"`
	TotalGridImport        float64 `json:"total_grid_import"`
	TotalGridExport        float64 `json:"total_grid_export"`
	SelfConsumptionVolume  float64 `json:"self_consumption_volume"`
	TradingVolume          float64 `json:"trading_volume"`
	TotalChargingVolume    float64 `json:"total_charging_volume"`
	TotalDischargingVolume float64 `json:"total_discharging_volume"`
	// Autarky is the share of consumption not covered by grid import.
	Autarky float64 `json:"autarky"`
	// SelfConsumptionRate is the share of production used inside the community.
	SelfConsumptionRate float64 `json:"self_consumption_rate"`
}

// CostMetrics are community costs in currency units; negative means net revenue.
type CostMetrics struct {
	CostWithLEC    float64 `json:"cost_with_lec"`
	CostWithoutLEC float64 `json:"cost_without_lec"`
	Savings        float64 `json:"savings"`
}

type MarketMetrics struct {
	TradingVolume        float64 `json:"trading_volume"`
	RatioFulfilledDemand float64 `json:"ratio_fulfilled_demand"`
	RatioSoldSupply      float64 `json:"ratio_sold_supply"`
	TotalOffered         float64 `json:"total_offered"`
	TotalRequested       float64 `json:"total_requested"`
	AverageClearingPrice float64 `json:"average_clearing_price"`
	ActiveHours          int     `json:"active_hours"`
}

// Profiles are mean kWh per building for each hour of the day.
type Profiles struct {
	LoadProfile []float64 `json:"load_profile"`
	GenProfile  []float64 `json:"gen_profile"`
}

type TradingNetwork struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Edge is a cumulative energy flow. It serializes as [from, to, volume].
type Edge struct {
	From   string
	To     string
	Volume float64
}

func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.From, e.To, e.Volume})
}

func (e *Edge) UnmarshalJSON(raw []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return &json.UnsupportedValueError{Str: string(raw)}
	}
	if err := json.Unmarshal(parts[0], &e.From); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &e.To); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &e.Volume)
}

// IndividualMetrics are per-building arrays indexed by building id.
type IndividualMetrics struct {
	Consumption           []float64 `json:"individual_consumption"`
	Production            []float64 `json:"individual_production"`
	SelfConsumptionVolume []float64 `json:"individual_selfconsumption_volume"`
	GridImport            []float64 `json:"individual_grid_import"`
	GridExport            []float64 `json:"individual_grid_export"`
	MarketPurchaseVolume  []float64 `json:"individual_market_purchase_volume"`
	MarketSellVolume      []float64 `json:"individual_market_sell_volume"`
	ChargingVolume        []float64 `json:"individual_charging_volume"`
	DischargingVolume     []float64 `json:"individual_discharging_volume"`
	Offered               []float64 `json:"individual_offered_volume"`
	Requested             []float64 `json:"individual_requested_volume"`
	CostWithLEC           []float64 `json:"individual_cost_with_lec"`
	CostWithoutLEC        []float64 `json:"individual_cost_without_lec"`
	HasPV                 []bool    `json:"has_pv"`
	HasBattery            []bool    `json:"has_battery"`
	HasSmartDevices       []bool    `json:"has_smart_devices"`
}
