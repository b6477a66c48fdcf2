package model

import (
	"errors"
	"math"
)

// BatteryParams defines the physical parameters of a building battery.
// Units:
// - CapacityKWh: kWh
// - MaxChargeKW / MaxDischargeKW: kW
// - Efficiencies: 0..1
// - MinSOC / MaxSOC: fraction of capacity 0..1
// - RetentionPerHour: fraction of stored energy kept after one idle hour
type BatteryParams struct {
	CapacityKWh         float64
	MaxChargeKW         float64
	MaxDischargeKW      float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	MinSOC              float64
	MaxSOC              float64
	RetentionPerHour    float64
}

// DefaultBatteryParams is a 10 kWh residential battery with a 0.5 C-rate.
func DefaultBatteryParams() BatteryParams {
	return BatteryParams{
		CapacityKWh:         10,
		MaxChargeKW:         5,
		MaxDischargeKW:      5,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		MinSOC:              0.15,
		MaxSOC:              0.85,
		RetentionPerHour:    0.999,
	}
}

// BatteryState captures mutable state.
type BatteryState struct {
	// SOC is the stored energy in kWh, within [0, CapacityKWh].
	SOC float64
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

func NewBattery(params BatteryParams, initialSOCKWh float64) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{SOC: initialSOCKWh},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	if err := b.Params.Validate(); err != nil {
		return err
	}
	if b.State.SOC < 0 || b.State.SOC > b.Params.CapacityKWh {
		return errors.New("initial SOC must be within [0, CapacityKWh]")
	}
	return nil
}

func (p BatteryParams) Validate() error {
	if p.CapacityKWh <= 0 {
		return errors.New("CapacityKWh must be > 0")
	}
	if p.MaxChargeKW <= 0 || p.MaxDischargeKW <= 0 {
		return errors.New("MaxChargeKW and MaxDischargeKW must be > 0")
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return errors.New("ChargeEfficiency must be in (0, 1]")
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return errors.New("DischargeEfficiency must be in (0, 1]")
	}
	if p.MinSOC < 0 || p.MinSOC > 1 || p.MaxSOC < 0 || p.MaxSOC > 1 || p.MinSOC > p.MaxSOC {
		return errors.New("MinSOC/MaxSOC must satisfy 0<=MinSOC<=MaxSOC<=1")
	}
	if p.RetentionPerHour <= 0 || p.RetentionPerHour > 1 {
		return errors.New("RetentionPerHour must be in (0, 1]")
	}
	return nil
}

// InitialState starts the battery at its lower SOC bound so the horizon gets no free inventory.
func (p BatteryParams) InitialState() BatteryState {
	return BatteryState{SOC: p.MinSOC * p.CapacityKWh}
}

// RoundTripEfficiency is the fraction of charged energy that can be delivered back.
func (p BatteryParams) RoundTripEfficiency() float64 {
	return p.ChargeEfficiency * p.DischargeEfficiency
}

// StepResult captures what happened in one step. Energies are bus-side kWh.
type StepResult struct {
	ChargeKWh    float64 // taken from the building surplus
	DischargeKWh float64 // delivered to the building deficit
	StoredKWh    float64 // added to SOC after conversion loss
	WithdrawnKWh float64 // removed from SOC before conversion loss
	SOCStart     float64
	SOCEnd       float64
	// Residual is the net energy left for the market: positive offer, negative request.
	Residual float64
}

// Step applies one hour of self-consumption dispatch to state and returns the new state.
// surplus is production minus consumption for the building in kWh.
// The input state is not modified.
func (p BatteryParams) Step(s BatteryState, surplus, durationHours float64) (BatteryState, StepResult) {
	res := StepResult{SOCStart: s.SOC, Residual: surplus}

	switch {
	case surplus > 0:
		charge := math.Min(surplus, p.maxChargeKWh(s, durationHours))
		if charge > 0 {
			stored := charge * p.ChargeEfficiency
			s.SOC += stored
			res.ChargeKWh = charge
			res.StoredKWh = stored
			res.Residual = surplus - charge
		}
	case surplus < 0:
		delivered := math.Min(-surplus, p.maxDischargeKWh(s, durationHours))
		if delivered > 0 {
			withdrawn := delivered / p.DischargeEfficiency
			s.SOC -= withdrawn
			res.DischargeKWh = delivered
			res.WithdrawnKWh = withdrawn
			res.Residual = surplus + delivered
		}
	}

	s.SOC *= 1 - (1-p.RetentionPerHour)*durationHours
	s.SOC = clamp(s.SOC, 0, p.CapacityKWh)
	res.SOCEnd = s.SOC
	return s, res
}

// Apply runs Step against the wrapped state.
func (b *Battery) Apply(surplus, durationHours float64) StepResult {
	next, res := b.Params.Step(b.State, surplus, durationHours)
	b.State = next
	return res
}

// maxChargeKWh is the largest bus-side charge before hitting MaxSOC or the power limit.
func (p BatteryParams) maxChargeKWh(s BatteryState, durationHours float64) float64 {
	storable := p.MaxSOC*p.CapacityKWh - s.SOC
	if storable <= 0 {
		return 0
	}
	limitBySOC := storable / p.ChargeEfficiency
	limitByPower := p.MaxChargeKW * durationHours
	return math.Max(0, math.Min(limitBySOC, limitByPower))
}

// maxDischargeKWh is the largest bus-side delivery before hitting MinSOC or the power limit.
func (p BatteryParams) maxDischargeKWh(s BatteryState, durationHours float64) float64 {
	withdrawable := s.SOC - p.MinSOC*p.CapacityKWh
	if withdrawable <= 0 {
		return 0
	}
	limitBySOC := withdrawable * p.DischargeEfficiency
	limitByPower := p.MaxDischargeKW * durationHours
	return math.Max(0, math.Min(limitBySOC, limitByPower))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
