package model

import "github.com/go-gl/mathgl/mgl64"

// FlowConditions describes the free stream an evaluation runs against.
type FlowConditions struct {
	AltitudeM  float64
	DeltaTK    float64 // offset from the ISA temperature profile
	AirspeedMS float64

	// CharLengthM is the Reynolds-number length scale.
	CharLengthM float64
	// ReferenceAreaM2 <= 0 derives the reference area from the mesh.
	ReferenceAreaM2 float64
	// ReferenceLengthM <= 0 falls back to CharLengthM.
	ReferenceLengthM float64

	// Direction is the world-space direction the free stream travels.
	Direction mgl64.Vec3
}

// DefaultFlowConditions is sea level, 30 m/s head-on flow against a body
// pointing along +X.
func DefaultFlowConditions() FlowConditions {
	return FlowConditions{
		AirspeedMS:  30,
		CharLengthM: 1,
		Direction:   mgl64.Vec3{-1, 0, 0},
	}
}

// ApplyDefaults fills unset direction and reference length.
func (f FlowConditions) ApplyDefaults() FlowConditions {
	if f.Direction.Len() == 0 {
		f.Direction = mgl64.Vec3{-1, 0, 0}
	}
	if f.ReferenceLengthM <= 0 {
		f.ReferenceLengthM = f.CharLengthM
	}
	return f
}

// PolarParams is the simplified drag polar and lift/moment curve of a body.
type PolarParams struct {
	Cd0              float64
	AspectRatio      float64 // <= 0 disables induced drag
	OswaldEfficiency float64 // <= 0 disables induced drag
	ClAlpha          float64 // per radian
	CmAlpha          float64 // per radian
	StallAngleDeg    float64
	// StallSaturation scales the post-stall lift asymptote as a fraction of
	// the linear lift at the stall angle.
	StallSaturation  float64
	ZeroLiftAngleDeg float64

	// CriticalMach and WaveDragFactor enable the quadratic drag rise; either
	// <= 0 disables it.
	CriticalMach   float64
	WaveDragFactor float64

	// WettedAreaRatio is used for skin friction when no mesh is available.
	WettedAreaRatio float64
}

// DefaultPolar returns a bluff-body polar.
func DefaultPolar() PolarParams {
	return PolarParams{
		Cd0:              0.30,
		AspectRatio:      1,
		OswaldEfficiency: 0.6,
		ClAlpha:          2.0,
		CmAlpha:          -0.5,
		StallAngleDeg:    15,
		StallSaturation:  0.9,
		CriticalMach:     0.8,
		WaveDragFactor:   10,
		WettedAreaRatio:  1,
	}
}

// ApplyDefaults fills the stall parameters when unset. Induced and wave
// drag stay disabled if their inputs were left at zero.
func (p PolarParams) ApplyDefaults() PolarParams {
	if p.StallAngleDeg <= 0 {
		p.StallAngleDeg = 15
	}
	if p.StallSaturation <= 0 {
		p.StallSaturation = 0.9
	}
	return p
}
