package rpc

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/internal/scenario"
	"github.com/signalsfoundry/aero-overlay/kb"
)

// OutputToStruct flattens an evaluation into a Struct response.
func OutputToStruct(out core.AeroOutput) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"flow": map[string]interface{}{
			"altitude_m":       out.Flow.Atmosphere.AltitudeM,
			"temperature_k":    out.Flow.Atmosphere.TemperatureK,
			"pressure_pa":      out.Flow.Atmosphere.PressurePa,
			"density":          out.Flow.Atmosphere.Density,
			"viscosity":        out.Flow.Atmosphere.Viscosity,
			"speed_of_sound":   out.Flow.Atmosphere.SpeedOfSound,
			"velocity":         out.Flow.Velocity,
			"dynamic_pressure": out.Flow.DynamicPressure,
			"mach":             out.Flow.Mach,
			"reynolds":         out.Flow.Reynolds,
		},
		"angles": map[string]interface{}{
			"alpha_deg": out.Angles.AlphaDeg,
			"beta_deg":  out.Angles.BetaDeg,
		},
		"coefficients": map[string]interface{}{
			"alpha_eff_deg": mgl64.RadToDeg(out.Coefficients.AlphaEff),
			"cl":            out.Coefficients.Cl,
			"cd":            out.Coefficients.Cd,
			"cm":            out.Coefficients.Cm,
			"cd0":           out.Coefficients.Cd0,
			"cd_friction":   out.Coefficients.CdFriction,
			"cd_induced":    out.Coefficients.CdInduced,
			"cd_wave":       out.Coefficients.CdWave,
			"cf":            out.Coefficients.Cf,
		},
		"forces": map[string]interface{}{
			"lift":          out.Forces.Lift,
			"drag":          out.Forces.Drag,
			"pitch_moment":  out.Forces.PitchMoment,
			"lift_vector":   vecValue(out.Forces.LiftVector),
			"drag_vector":   vecValue(out.Forces.DragVector),
			"moment_vector": vecValue(out.Forces.MomentVector),
		},
		"geometry": map[string]interface{}{
			"triangles":     float64(out.Geometry.TriangleCount),
			"degenerate":    float64(out.Geometry.DegenerateCount),
			"surface_area":  out.Geometry.SurfaceArea,
			"volume":        out.Geometry.Volume,
			"frontal_area":  out.Geometry.Frontal.Area,
			"planform_area": out.Geometry.Planform.Area,
		},
		"reference_area":   out.ReferenceArea,
		"reference_length": out.ReferenceLength,
		"wetted_ratio":     out.WettedRatio,
		"pressure_center":  vecValue(out.PressureCenter),
	}
	sanitize(m)
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return s, nil
}

func bodyToValue(b kb.Body) map[string]interface{} {
	triangles := 0
	if b.Scenario.Mesh != nil {
		triangles = b.Scenario.Mesh.TriangleCount()
	}
	return map[string]interface{}{
		"id":          b.ID,
		"name":        b.Scenario.Name,
		"revision":    float64(b.Revision),
		"triangles":   float64(triangles),
		"airspeed_ms": b.Scenario.Flow.AirspeedMS,
		"altitude_m":  b.Scenario.Flow.AltitudeM,
	}
}

// scenarioFromStruct re-encodes a Struct as JSON, which the YAML scenario
// decoder accepts unchanged.
func scenarioFromStruct(s *structpb.Struct) (*scenario.Scenario, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: scenario document is required", ErrInvalidRequest)
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return scenario.Parse(raw)
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func durationField(s *structpb.Struct, key string) (time.Duration, error) {
	if s == nil {
		return 0, nil
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	secs, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || secs.NumberValue < 0 || math.IsInf(secs.NumberValue, 0) || math.IsNaN(secs.NumberValue) {
		return 0, fmt.Errorf("%w: %s must be a non-negative number of seconds", ErrInvalidRequest, key)
	}
	return time.Duration(secs.NumberValue * float64(time.Second)), nil
}

func vecValue(v mgl64.Vec3) []interface{} {
	return []interface{}{v[0], v[1], v[2]}
}

// sanitize replaces non-finite numbers, which JSON transcoding of the
// response cannot carry.
func sanitize(m map[string]interface{}) {
	for k, v := range m {
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				m[k] = 0.0
			}
		case []interface{}:
			for i, e := range x {
				if f, ok := e.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
					x[i] = 0.0
				}
			}
		case map[string]interface{}:
			sanitize(x)
		}
	}
}
