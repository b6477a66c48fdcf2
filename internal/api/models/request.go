package models

import "lec-simulator/internal/model"

// SimulateRequest represents the request body for POST /api/simulate.
// Percentages are pointers so an explicit 0 passes the required check.
type SimulateRequest struct {
	CommunitySize int    `json:"community_size" binding:"required,min=5,max=100"`
	Season        string `json:"season" binding:"required,oneof=sum win aut spr"`
	PVPercentage  *int   `json:"pv_percentage" binding:"required,min=0,max=100"`
	SDPercentage  *int   `json:"sd_percentage" binding:"required,min=0,max=100"`
	WithBattery   bool   `json:"with_battery"`

	Seed          *uint64 `json:"seed,omitempty"`
	IncludeLedger bool    `json:"include_ledger,omitempty"`
}

// ToParams converts the request, using defaultSeed when none was sent.
func (r SimulateRequest) ToParams(defaultSeed uint64) model.SimulationParameters {
	p := model.SimulationParameters{
		CommunitySize: r.CommunitySize,
		Season:        model.Season(r.Season),
		WithBattery:   r.WithBattery,
		Seed:          defaultSeed,
	}
	if r.PVPercentage != nil {
		p.PVPercentage = *r.PVPercentage
	}
	if r.SDPercentage != nil {
		p.SDPercentage = *r.SDPercentage
	}
	if r.Seed != nil {
		p.Seed = *r.Seed
	}
	return p
}

// CompareRequest runs a base scenario next to named variations of it.
type CompareRequest struct {
	Base       SimulateRequest `json:"base" binding:"required"`
	Variations []Variation     `json:"variations" binding:"required,min=1,max=8,dive"`
}

// Variation overrides fields of the base scenario. Unset fields keep the base value.
// Overridden values are checked by the engine, not by binding.
type Variation struct {
	Name          string  `json:"name" binding:"required"`
	CommunitySize *int    `json:"community_size,omitempty"`
	Season        *string `json:"season,omitempty"`
	PVPercentage  *int    `json:"pv_percentage,omitempty"`
	SDPercentage  *int    `json:"sd_percentage,omitempty"`
	WithBattery   *bool   `json:"with_battery,omitempty"`
	Seed          *uint64 `json:"seed,omitempty"`
}

func (v Variation) Apply(p model.SimulationParameters) model.SimulationParameters {
	if v.CommunitySize != nil {
		p.CommunitySize = *v.CommunitySize
	}
	if v.Season != nil {
		p.Season = model.Season(*v.Season)
	}
	if v.PVPercentage != nil {
		p.PVPercentage = *v.PVPercentage
	}
	if v.SDPercentage != nil {
		p.SDPercentage = *v.SDPercentage
	}
	if v.WithBattery != nil {
		p.WithBattery = *v.WithBattery
	}
	if v.Seed != nil {
		p.Seed = *v.Seed
	}
	return p
}

// RankRequest represents the query of GET /api/simulate/:id/rank.
type RankRequest struct {
	Limit int `form:"limit,omitempty" binding:"omitempty,min=1,max=100"` // default: 10
}
