package model

// Action is a human-friendly operating mode for a timestep.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// actionEpsilonKW absorbs solver noise around zero.
const actionEpsilonKW = 1e-7

// ActionFromPowerKW maps net battery power (discharge minus charge, kW) to an Action.
func ActionFromPowerKW(powerKW float64) Action {
	switch {
	case powerKW < -actionEpsilonKW:
		return ActionCharging
	case powerKW > actionEpsilonKW:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
