package core

import "math"

// ISA sea-level reference values and gas constants (SI units).
const (
	SeaLevelTemperatureK = 288.15
	SeaLevelPressurePa   = 101325.0
	LapseRateKPerM       = 0.0065
	TropopauseAltitudeM  = 11000.0
	GasConstantAir       = 287.05287 // J/(kg·K)
	StandardGravity      = 9.80665   // m/s²
	HeatCapacityRatio    = 1.4

	sutherlandMuRef = 1.716e-5 // Pa·s
	sutherlandTRef  = 273.15   // K
	sutherlandS     = 110.4    // K

	// minTemperatureK keeps the power laws well-behaved for extreme
	// negative temperature offsets.
	minTemperatureK = 150.0
)

// AtmosphereSample holds the thermodynamic state of the air at one altitude.
type AtmosphereSample struct {
	AltitudeM    float64 // clamped to >= 0
	TemperatureK float64
	PressurePa   float64
	Density      float64 // kg/m³
	Viscosity    float64 // Pa·s
	SpeedOfSound float64 // m/s
}

// ISAProperties returns temperature (K), pressure (Pa) and density (kg/m³)
// for the given altitude and temperature offset. Negative altitudes are
// treated as sea level; altitudes above the tropopause continue the
// isothermal layer indefinitely.
func ISAProperties(altitudeM, deltaTK float64) (temperature, pressure, density float64) {
	h := math.Max(altitudeM, 0)
	base := math.Max(SeaLevelTemperatureK+deltaTK, minTemperatureK)
	exponent := StandardGravity / (LapseRateKPerM * GasConstantAir)

	if h <= TropopauseAltitudeM {
		temperature = math.Max(base-LapseRateKPerM*h, minTemperatureK)
		pressure = SeaLevelPressurePa * math.Pow(temperature/base, exponent)
	} else {
		temperature = math.Max(base-LapseRateKPerM*TropopauseAltitudeM, minTemperatureK)
		p11 := SeaLevelPressurePa * math.Pow(temperature/base, exponent)
		pressure = p11 * math.Exp(-StandardGravity*(h-TropopauseAltitudeM)/(GasConstantAir*temperature))
	}

	density = pressure / (GasConstantAir * temperature)
	return temperature, pressure, density
}

// SutherlandViscosity returns the dynamic viscosity of air (Pa·s) at
// temperature T.
func SutherlandViscosity(temperatureK float64) float64 {
	t := math.Max(temperatureK, minTemperatureK)
	return sutherlandMuRef * math.Pow(t/sutherlandTRef, 1.5) * (sutherlandTRef + sutherlandS) / (t + sutherlandS)
}

// SpeedOfSound returns the speed of sound in air (m/s) at temperature T.
func SpeedOfSound(temperatureK float64) float64 {
	return math.Sqrt(HeatCapacityRatio * GasConstantAir * math.Max(temperatureK, minTemperatureK))
}

// Atmosphere evaluates the full ISA sample at an altitude.
func Atmosphere(altitudeM, deltaTK float64) AtmosphereSample {
	t, p, rho := ISAProperties(altitudeM, deltaTK)
	return AtmosphereSample{
		AltitudeM:    math.Max(altitudeM, 0),
		TemperatureK: t,
		PressurePa:   p,
		Density:      rho,
		Viscosity:    SutherlandViscosity(t),
		SpeedOfSound: SpeedOfSound(t),
	}
}
