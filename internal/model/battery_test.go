package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBatteryParamsAreValid(t *testing.T) {
	p := DefaultBatteryParams()
	require.NoError(t, p.Validate())
	assert.InDelta(t, 1.5, p.InitialState().SOC, 1e-12)
	assert.InDelta(t, 0.9025, p.RoundTripEfficiency(), 1e-12)
}

func TestBatteryParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BatteryParams)
	}{
		{"zero capacity", func(p *BatteryParams) { p.CapacityKWh = 0 }},
		{"zero power", func(p *BatteryParams) { p.MaxChargeKW = 0 }},
		{"charge efficiency above one", func(p *BatteryParams) { p.ChargeEfficiency = 1.1 }},
		{"discharge efficiency zero", func(p *BatteryParams) { p.DischargeEfficiency = 0 }},
		{"soc window inverted", func(p *BatteryParams) { p.MinSOC, p.MaxSOC = 0.9, 0.1 }},
		{"retention zero", func(p *BatteryParams) { p.RetentionPerHour = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultBatteryParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestNewBatteryRejectsSOCOutsideCapacity(t *testing.T) {
	_, err := NewBattery(DefaultBatteryParams(), 11)
	assert.Error(t, err)

	b, err := NewBattery(DefaultBatteryParams(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, b.State.SOC)
}

func TestStepChargeLimitedByPower(t *testing.T) {
	p := DefaultBatteryParams()
	p.RetentionPerHour = 1

	s, res := p.Step(p.InitialState(), 8, 1)

	assert.InDelta(t, 5, res.ChargeKWh, 1e-9)
	assert.InDelta(t, 4.75, res.StoredKWh, 1e-9)
	assert.InDelta(t, 3, res.Residual, 1e-9)
	assert.InDelta(t, 1.5+4.75, s.SOC, 1e-9)
	assert.Zero(t, res.DischargeKWh)
}

func TestStepChargeLimitedByHeadroom(t *testing.T) {
	p := DefaultBatteryParams()
	p.RetentionPerHour = 1
	start := BatteryState{SOC: 8}

	s, res := p.Step(start, 4, 1)

	// 0.5 kWh of headroom below MaxSOC needs 0.5/0.95 from the bus
	assert.InDelta(t, 0.5/0.95, res.ChargeKWh, 1e-9)
	assert.InDelta(t, 8.5, s.SOC, 1e-9)
	assert.InDelta(t, 4-0.5/0.95, res.Residual, 1e-9)
}

func TestStepDischargeLimitedByAvailableEnergy(t *testing.T) {
	p := DefaultBatteryParams()
	p.RetentionPerHour = 1
	start := BatteryState{SOC: 2.5}

	s, res := p.Step(start, -3, 1)

	assert.InDelta(t, 0.95, res.DischargeKWh, 1e-9)
	assert.InDelta(t, 1.0, res.WithdrawnKWh, 1e-9)
	assert.InDelta(t, 1.5, s.SOC, 1e-9)
	assert.InDelta(t, -2.05, res.Residual, 1e-9)
}

func TestStepEmptyBatteryPassesDeficitThrough(t *testing.T) {
	p := DefaultBatteryParams()

	s, res := p.Step(p.InitialState(), -2, 1)

	assert.Zero(t, res.DischargeKWh)
	assert.Equal(t, -2.0, res.Residual)
	assert.Less(t, s.SOC, p.InitialState().SOC)
}

func TestStepAppliesRetention(t *testing.T) {
	p := DefaultBatteryParams()
	start := BatteryState{SOC: 5}

	s, res := p.Step(start, 0, 1)

	assert.InDelta(t, 5*0.999, s.SOC, 1e-12)
	assert.Equal(t, ActionIdle, ActionFromFlows(res.ChargeKWh, res.DischargeKWh))
}

func TestStepKeepsBoundsOverLongSequence(t *testing.T) {
	p := DefaultBatteryParams()
	b := &Battery{Params: p, State: p.InitialState()}
	surpluses := []float64{9, 9, 9, 9, -7, -7, -7, 0.3, -0.1, 12, -12}
	for i := 0; i < 50; i++ {
		res := b.Apply(surpluses[i%len(surpluses)], 1)
		require.GreaterOrEqual(t, b.State.SOC, 0.0)
		require.LessOrEqual(t, b.State.SOC, p.CapacityKWh)
		require.LessOrEqual(t, res.ChargeKWh, p.MaxChargeKW+1e-12)
		require.LessOrEqual(t, res.DischargeKWh, p.MaxDischargeKW+1e-12)
	}
}

func TestActionFromFlows(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlows(1, 0))
	assert.Equal(t, ActionDischarging, ActionFromFlows(0, 1))
	assert.Equal(t, ActionIdle, ActionFromFlows(0, 0))
}
