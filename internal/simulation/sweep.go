package simulation

import (
	"context"
	"slices"

	"lec-simulator/internal/model"
)

// SweepPoint averages the runs of one PV share over all sweep seeds.
type SweepPoint struct {
	PVPercentage    int     `json:"pv_percentage"`
	Runs            int     `json:"runs"`
	TotalProduction float64 `json:"total_production"`
	TradingVolume   float64 `json:"trading_volume"`
	GridImport      float64 `json:"total_grid_import"`
	Autarky         float64 `json:"autarky"`
	CostWithLEC     float64 `json:"cost_with_lec"`
	CostWithoutLEC  float64 `json:"cost_without_lec"`
	Savings         float64 `json:"savings"`
}

// SweepPV runs base once per (PV share, seed) pair and returns one averaged point per
// share in ascending order. An empty seeds slice uses base.Seed.
func (e *Engine) SweepPV(ctx context.Context, base model.SimulationParameters, pvs []int, seeds []uint64, limit int) ([]SweepPoint, error) {
	if len(seeds) == 0 {
		seeds = []uint64{base.Seed}
	}
	pvs = slices.Clone(pvs)
	slices.Sort(pvs)
	pvs = slices.Compact(pvs)

	params := make([]model.SimulationParameters, 0, len(pvs)*len(seeds))
	for _, pv := range pvs {
		for _, seed := range seeds {
			p := base
			p.PVPercentage = pv
			p.Seed = seed
			params = append(params, p)
		}
	}

	outcomes, err := e.RunMany(ctx, params, limit)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(pvs))
	for i, pv := range pvs {
		pt := SweepPoint{PVPercentage: pv}
		for _, o := range outcomes[i*len(seeds) : (i+1)*len(seeds)] {
			r := o.Result
			pt.Runs++
			pt.TotalProduction += r.EnergyMetrics.TotalProduction
			pt.TradingVolume += r.EnergyMetrics.TradingVolume
			pt.GridImport += r.EnergyMetrics.TotalGridImport
			pt.Autarky += r.EnergyMetrics.Autarky
			pt.CostWithLEC += r.CostMetrics.CostWithLEC
			pt.CostWithoutLEC += r.CostMetrics.CostWithoutLEC
			pt.Savings += r.CostMetrics.Savings
		}
		n := float64(pt.Runs)
		pt.TotalProduction /= n
		pt.TradingVolume /= n
		pt.GridImport /= n
		pt.Autarky /= n
		pt.CostWithLEC /= n
		pt.CostWithoutLEC /= n
		pt.Savings /= n
		points[i] = pt
	}
	return points, nil
}

// NonDecreasing reports whether metric never drops between consecutive points.
func NonDecreasing(points []SweepPoint, metric func(SweepPoint) float64) bool {
	for i := 1; i < len(points); i++ {
		if metric(points[i]) < metric(points[i-1]) {
			return false
		}
	}
	return true
}
