package core

import "math"

// Epsilon is the floor applied to denominators that must stay positive
// (characteristic length, viscosity, projected weight).
const Epsilon = 1e-9

// FlowState is the free-stream condition seen by the body.
type FlowState struct {
	Atmosphere      AtmosphereSample
	Velocity        float64 // m/s, always >= 0
	DynamicPressure float64 // Pa
	Mach            float64
	Reynolds        float64
}

// ComputeFlowState derives dynamic pressure, Mach and Reynolds numbers
// from an atmosphere sample. The sign of velocity is ignored.
func ComputeFlowState(atm AtmosphereSample, velocity, charLength float64) FlowState {
	v := math.Abs(velocity)
	length := math.Max(charLength, Epsilon)
	mu := math.Max(atm.Viscosity, Epsilon)

	mach := 0.0
	if atm.SpeedOfSound > Epsilon {
		mach = v / atm.SpeedOfSound
	}

	return FlowState{
		Atmosphere:      atm,
		Velocity:        v,
		DynamicPressure: 0.5 * atm.Density * v * v,
		Mach:            mach,
		Reynolds:        atm.Density * v * length / mu,
	}
}
