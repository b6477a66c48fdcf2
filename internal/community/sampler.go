// Package community turns a household dataset into the buildings of one simulated community.
package community

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"lec-simulator/internal/data"
	"lec-simulator/internal/model"
)

// ErrInsufficientData means the dataset has fewer households than the community needs.
var ErrInsufficientData = errors.New("insufficient households in dataset")

// NewRand returns the run's random stream. Every draw of a run must come from it.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}

// Sample draws the community's buildings from ds. ds must already be restricted to the
// simulated horizon. The returned warnings describe degenerate household series.
func Sample(p model.SimulationParameters, ds *data.Dataset, battery model.BatteryParams, rng *rand.Rand) ([]model.Building, []string, error) {
	need := p.HouseholdsRequired()
	if len(ds.Households) < need {
		return nil, nil, fmt.Errorf("%w: need %d households for %d buildings, dataset has %d",
			ErrInsufficientData, need, p.CommunitySize, len(ds.Households))
	}

	picked := rng.Perm(len(ds.Households))[:need]

	var warnings []string
	buildings := make([]model.Building, p.CommunitySize)
	for b := range buildings {
		bld := model.Building{
			ID:         b,
			Households: make([]string, 0, model.HouseholdsPerBuilding),
			Load:       make([]float64, ds.Len()),
			PV:         make([]float64, ds.Len()),
			HasPV:      true,
		}
		for _, k := range picked[b*model.HouseholdsPerBuilding : (b+1)*model.HouseholdsPerBuilding] {
			h, n := data.SanitizeHousehold(ds.Households[k])
			if n > 0 {
				warnings = append(warnings, fmt.Sprintf("household %s: %d invalid samples replaced with 0", h.ID, n))
			}
			bld.Households = append(bld.Households, h.ID)
			warnings = append(warnings, data.Inspect(h)...)
			for i := range bld.Load {
				bld.Load[i] += h.Load[i]
				bld.PV[i] += h.PV[i]
			}
		}
		buildings[b] = bld
	}

	withPV := p.PVPercentage * p.CommunitySize / 100
	for _, b := range rng.Perm(p.CommunitySize)[:p.CommunitySize-withPV] {
		buildings[b].HasPV = false
		buildings[b].PV = make([]float64, ds.Len())
	}

	withSD := p.SDPercentage * p.CommunitySize / 100
	for _, b := range rng.Perm(p.CommunitySize)[:withSD] {
		buildings[b].HasSmartDevices = true
	}

	if p.WithBattery {
		for b := range buildings {
			params := battery
			buildings[b].HasBattery = true
			buildings[b].Battery = &params
		}
	}

	for _, b := range buildings {
		if b.HasPV && isZero(b.PV) {
			warnings = append(warnings, fmt.Sprintf("building %s: assigned PV but generation is zero over the horizon", b.Node()))
		}
	}
	return buildings, warnings, nil
}

func isZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
