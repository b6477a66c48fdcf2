package model

// Action is a human-friendly battery operating mode for a timestep.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromFlows classifies a step by its net battery flow.
func ActionFromFlows(chargeKWh, dischargeKWh float64) Action {
	net := chargeKWh - dischargeKWh
	switch {
	case net > 0:
		return ActionCharging
	case net < 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
