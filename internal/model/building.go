package model

import "fmt"

// Building aggregates HouseholdsPerBuilding households. Series are hourly kWh aligned
// to the dataset timestamps and must not be mutated once the community is built.
type Building struct {
	ID         int
	Households []string

	Load []float64
	PV   []float64

	HasPV           bool
	HasBattery      bool
	HasSmartDevices bool

	// Battery is nil when HasBattery is false.
	Battery *BatteryParams
}

// Node is the building's name in the trading network.
func (b Building) Node() string {
	return NodeName(b.ID)
}

func NodeName(id int) string {
	return fmt.Sprintf("B%02d", id)
}

// GridNode is the trading-network node standing for the public grid.
const GridNode = "grid"

// HourlyBalance is the per-building, per-hour energy account. All values are kWh >= 0.
type HourlyBalance struct {
	BuildingID int

	Production      float64
	Consumption     float64
	SelfConsumption float64

	Charge    float64
	Discharge float64

	Offer   float64
	Request float64

	MarketSell     float64
	MarketPurchase float64

	GridExport float64
	GridImport float64

	SOCStart float64
	SOCEnd   float64
}

// Sources is the energy entering the building bus.
func (h HourlyBalance) Sources() float64 {
	return h.Production + h.Discharge + h.MarketPurchase + h.GridImport
}

// Sinks is the energy leaving the building bus.
func (h HourlyBalance) Sinks() float64 {
	return h.Consumption + h.Charge + h.MarketSell + h.GridExport
}

// Order is the building's signed market position for the hour.
func (h HourlyBalance) Order() MarketOrder {
	return MarketOrder{BuildingID: h.BuildingID, Net: h.Offer - h.Request}
}

// MarketOrder is a building's signed net energy for one hour.
// Positive = offer (surplus), negative = request (deficit).
type MarketOrder struct {
	BuildingID int
	Net        float64
}

func (o MarketOrder) Offer() float64 {
	if o.Net > 0 {
		return o.Net
	}
	return 0
}

func (o MarketOrder) Request() float64 {
	if o.Net < 0 {
		return -o.Net
	}
	return 0
}

// Trade is one matched seller→buyer volume for an hour at the uniform clearing price.
type Trade struct {
	Seller int
	Buyer  int
	Volume float64
	Price  float64
}
