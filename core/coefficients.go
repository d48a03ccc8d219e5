package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/aero-overlay/model"
)

// Skin-friction transition band (Reynolds numbers).
const (
	TransitionReynoldsStart = 3e5
	TransitionReynoldsEnd   = 3e6
)

// Coefficients are the non-dimensional aerodynamic coefficients for one
// evaluation. Cd is the sum of the listed drag components.
type Coefficients struct {
	AlphaEff float64 // stall-clamped angle of attack, radians

	Cl float64
	Cd float64
	Cm float64

	Cd0        float64
	CdFriction float64
	CdInduced  float64
	CdWave     float64
	Cf         float64
}

// StallClamp returns alpha unchanged inside the stall angle and a tanh
// saturation beyond it whose magnitude approaches saturation·stallRad.
func StallClamp(alpha, stallRad, saturation float64) float64 {
	if stallRad <= 0 || math.Abs(alpha) <= stallRad {
		return alpha
	}
	return saturation * stallRad * math.Tanh(alpha/stallRad)
}

// InducedDragFactor returns 1/(π·AR·e), or 0 when either input is not
// positive.
func InducedDragFactor(aspectRatio, oswald float64) float64 {
	if aspectRatio <= 0 || oswald <= 0 {
		return 0
	}
	return 1 / (math.Pi * aspectRatio * oswald)
}

// SkinFriction returns the flat-plate skin-friction coefficient, blending
// the laminar (Blasius) and turbulent (Prandtl) estimates linearly in
// log10(Re) across the transition band.
func SkinFriction(reynolds float64) float64 {
	if !(reynolds > 0) || math.IsInf(reynolds, 0) {
		return 0
	}
	re := math.Max(reynolds, 1)
	laminar := 1.328 / math.Sqrt(re)
	turbulent := 0.074 / math.Pow(re, 0.2)

	lo := math.Log10(TransitionReynoldsStart)
	hi := math.Log10(TransitionReynoldsEnd)
	t := mgl64.Clamp((math.Log10(re)-lo)/(hi-lo), 0, 1)
	return laminar*(1-t) + turbulent*t
}

// WaveDrag returns factor·(M − Mcrit)² above the critical Mach number and 0
// otherwise or when the term is not configured.
func WaveDrag(mach, criticalMach, factor float64) float64 {
	if criticalMach <= 0 || factor <= 0 || mach <= criticalMach {
		return 0
	}
	d := mach - criticalMach
	return factor * d * d
}

// ComputeCoefficients evaluates the polar at angle of attack alpha
// (radians). wettedRatio is wetted area over reference area.
func ComputeCoefficients(alpha float64, polar model.PolarParams, reynolds, mach, wettedRatio float64) Coefficients {
	stallRad := mgl64.DegToRad(polar.StallAngleDeg)
	saturation := polar.StallSaturation
	if saturation <= 0 {
		saturation = 1
	}
	alphaEff := StallClamp(alpha, stallRad, saturation)

	cl := polar.ClAlpha * (alphaEff - mgl64.DegToRad(polar.ZeroLiftAngleDeg))
	cdi := InducedDragFactor(polar.AspectRatio, polar.OswaldEfficiency) * cl * cl

	cf := SkinFriction(reynolds)
	cdf := cf * math.Max(0, wettedRatio)
	cdw := WaveDrag(mach, polar.CriticalMach, polar.WaveDragFactor)

	return Coefficients{
		AlphaEff:   alphaEff,
		Cl:         cl,
		Cd:         polar.Cd0 + cdf + cdi + cdw,
		Cm:         polar.CmAlpha * alphaEff,
		Cd0:        polar.Cd0,
		CdFriction: cdf,
		CdInduced:  cdi,
		CdWave:     cdw,
		Cf:         cf,
	}
}
