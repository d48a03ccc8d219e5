package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/model"
)

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxSphereResolution bounds procedural sphere tessellation.
const maxSphereResolution = 512

// document shapes stay unexported so the file format can evolve
// independently of Scenario.
type document struct {
	Name      string       `yaml:"name"`
	Flow      flowDoc      `yaml:"flow"`
	Polar     polarDoc     `yaml:"polar"`
	Pose      poseDoc      `yaml:"pose"`
	Mesh      *meshDoc     `yaml:"mesh"`
	Animation animationDoc `yaml:"animation"`
}

type flowDoc struct {
	AltitudeM        *float64  `yaml:"altitude_m"`
	DeltaTK          *float64  `yaml:"delta_t_k"`
	AirspeedMS       *float64  `yaml:"airspeed_ms"`
	CharLengthM      *float64  `yaml:"char_length_m"`
	ReferenceAreaM2  *float64  `yaml:"reference_area_m2"`
	ReferenceLengthM *float64  `yaml:"reference_length_m"`
	Direction        []float64 `yaml:"direction"`
}

type polarDoc struct {
	Cd0             *float64 `yaml:"cd0"`
	AspectRatio     *float64 `yaml:"aspect_ratio"`
	Oswald          *float64 `yaml:"oswald"`
	ClAlpha         *float64 `yaml:"cl_alpha"`
	CmAlpha         *float64 `yaml:"cm_alpha"`
	StallDeg        *float64 `yaml:"stall_deg"`
	StallSaturation *float64 `yaml:"stall_saturation"`
	ZeroLiftDeg     *float64 `yaml:"zero_lift_deg"`
	CriticalMach    *float64 `yaml:"critical_mach"`
	WaveDrag        *float64 `yaml:"wave_drag"`
	WettedRatio     *float64 `yaml:"wetted_ratio"`
}

type poseDoc struct {
	Translation []float64 `yaml:"translation"`
	EulerDeg    eulerDoc  `yaml:"euler_deg"`
	Scale       []float64 `yaml:"scale"`
	ForwardAxis string    `yaml:"forward_axis"`
	UpAxis      string    `yaml:"up_axis"`
}

type eulerDoc struct {
	Roll  float64 `yaml:"roll"`
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
}

type meshDoc struct {
	Box      *boxDoc    `yaml:"box"`
	Sphere   *sphereDoc `yaml:"sphere"`
	Vertices []float32  `yaml:"vertices"`
	Indices  []uint32   `yaml:"indices"`
}

type boxDoc struct {
	Size []float64 `yaml:"size"`
}

type sphereDoc struct {
	Radius float64 `yaml:"radius"`
	Stacks int     `yaml:"stacks"`
	Slices int     `yaml:"slices"`
}

type animationDoc struct {
	PitchRateDPS float64 `yaml:"pitch_rate_dps"`
	YawRateDPS   float64 `yaml:"yaw_rate_dps"`
}

// LoadFile reads a scenario from path. Files ending in .zst are
// decompressed first.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	sc, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = baseName(path)
	}
	return sc, nil
}

// Load reads a scenario from r. Input starting with a zstd frame header is
// decompressed transparently.
func Load(r io.Reader) (*Scenario, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidScenario)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		data, err = decompress(data)
		if err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML (or JSON) scenario document.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return doc.build()
}

// Compress zstd-encodes a scenario document for storage.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrInvalidScenario, err)
	}
	return out, nil
}

func (d *document) build() (*Scenario, error) {
	flow, err := d.Flow.build()
	if err != nil {
		return nil, err
	}
	polar, err := d.Polar.build()
	if err != nil {
		return nil, err
	}
	pose, err := d.Pose.build()
	if err != nil {
		return nil, err
	}
	mesh, err := d.Mesh.build()
	if err != nil {
		return nil, err
	}
	if !finite(d.Animation.PitchRateDPS, d.Animation.YawRateDPS) {
		return nil, fmt.Errorf("%w: animation rates must be finite", ErrInvalidScenario)
	}

	return &Scenario{
		Name:  d.Name,
		Flow:  flow,
		Polar: polar,
		Pose:  pose,
		Mesh:  mesh,
		Animation: Animation{
			PitchRateDPS: d.Animation.PitchRateDPS,
			YawRateDPS:   d.Animation.YawRateDPS,
		},
	}, nil
}

func (f flowDoc) build() (model.FlowConditions, error) {
	out := model.DefaultFlowConditions()
	set(&out.AltitudeM, f.AltitudeM)
	set(&out.DeltaTK, f.DeltaTK)
	set(&out.AirspeedMS, f.AirspeedMS)
	set(&out.CharLengthM, f.CharLengthM)
	set(&out.ReferenceAreaM2, f.ReferenceAreaM2)
	set(&out.ReferenceLengthM, f.ReferenceLengthM)

	if !finite(out.AltitudeM, out.DeltaTK, out.AirspeedMS, out.CharLengthM, out.ReferenceAreaM2, out.ReferenceLengthM) {
		return out, fmt.Errorf("%w: flow values must be finite", ErrInvalidScenario)
	}
	if out.CharLengthM < 0 {
		return out, fmt.Errorf("%w: char_length_m must be >= 0", ErrInvalidScenario)
	}
	if f.Direction != nil {
		dir, err := vec3("flow.direction", f.Direction)
		if err != nil {
			return out, err
		}
		if dir.Len() == 0 {
			return out, fmt.Errorf("%w: flow.direction must be non-zero", ErrInvalidScenario)
		}
		out.Direction = dir.Normalize()
	}
	return out.ApplyDefaults(), nil
}

func (p polarDoc) build() (model.PolarParams, error) {
	out := model.DefaultPolar()
	set(&out.Cd0, p.Cd0)
	set(&out.AspectRatio, p.AspectRatio)
	set(&out.OswaldEfficiency, p.Oswald)
	set(&out.ClAlpha, p.ClAlpha)
	set(&out.CmAlpha, p.CmAlpha)
	set(&out.StallAngleDeg, p.StallDeg)
	set(&out.StallSaturation, p.StallSaturation)
	set(&out.ZeroLiftAngleDeg, p.ZeroLiftDeg)
	set(&out.CriticalMach, p.CriticalMach)
	set(&out.WaveDragFactor, p.WaveDrag)
	set(&out.WettedAreaRatio, p.WettedRatio)

	if !finite(out.Cd0, out.AspectRatio, out.OswaldEfficiency, out.ClAlpha, out.CmAlpha,
		out.StallAngleDeg, out.StallSaturation, out.ZeroLiftAngleDeg, out.CriticalMach,
		out.WaveDragFactor, out.WettedAreaRatio) {
		return out, fmt.Errorf("%w: polar values must be finite", ErrInvalidScenario)
	}
	if out.Cd0 < 0 || out.WettedAreaRatio < 0 {
		return out, fmt.Errorf("%w: cd0 and wetted_ratio must be >= 0", ErrInvalidScenario)
	}
	return out.ApplyDefaults(), nil
}

func (p poseDoc) build() (Pose, error) {
	out := DefaultPose()
	if p.Translation != nil {
		t, err := vec3("pose.translation", p.Translation)
		if err != nil {
			return out, err
		}
		out.Translation = t
	}
	if p.Scale != nil {
		s, err := vec3("pose.scale", p.Scale)
		if err != nil {
			return out, err
		}
		out.Scale = s
	}
	out.RollDeg = p.EulerDeg.Roll
	out.PitchDeg = p.EulerDeg.Pitch
	out.YawDeg = p.EulerDeg.Yaw
	if !finite(out.RollDeg, out.PitchDeg, out.YawDeg) {
		return out, fmt.Errorf("%w: pose.euler_deg must be finite", ErrInvalidScenario)
	}

	var err error
	if p.ForwardAxis != "" {
		if out.LocalForward, err = ParseAxis(p.ForwardAxis); err != nil {
			return out, err
		}
	}
	if p.UpAxis != "" {
		if out.LocalUp, err = ParseAxis(p.UpAxis); err != nil {
			return out, err
		}
	}
	if math.Abs(out.LocalForward.Dot(out.LocalUp)) > 0.5 {
		return out, fmt.Errorf("%w: forward_axis and up_axis must differ", ErrInvalidScenario)
	}
	return out, nil
}

func (m *meshDoc) build() (*core.IndexedMesh, error) {
	if m == nil {
		return nil, nil
	}
	sources := 0
	if m.Box != nil {
		sources++
	}
	if m.Sphere != nil {
		sources++
	}
	if len(m.Vertices) > 0 {
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("%w: mesh needs exactly one of box, sphere or vertices", ErrInvalidScenario)
	}

	switch {
	case m.Box != nil:
		size, err := vec3("mesh.box.size", m.Box.Size)
		if err != nil {
			return nil, err
		}
		if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
			return nil, fmt.Errorf("%w: mesh.box.size must be positive", ErrInvalidScenario)
		}
		return core.Box(size.X(), size.Y(), size.Z()), nil
	case m.Sphere != nil:
		s := m.Sphere
		if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
			return nil, fmt.Errorf("%w: mesh.sphere.radius must be positive", ErrInvalidScenario)
		}
		stacks, slices := s.Stacks, s.Slices
		if stacks == 0 {
			stacks = 16
		}
		if slices == 0 {
			slices = 32
		}
		if stacks < 2 || slices < 3 || stacks > maxSphereResolution || slices > maxSphereResolution {
			return nil, fmt.Errorf("%w: mesh.sphere resolution %dx%d out of range", ErrInvalidScenario, stacks, slices)
		}
		return core.UVSphere(s.Radius, stacks, slices), nil
	default:
		mesh := &core.IndexedMesh{Vertices: m.Vertices, Indices: m.Indices}
		if err := mesh.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		return mesh, nil
	}
}

// ParseAxis converts "+x", "-z", "y" and similar into a unit vector.
func ParseAxis(s string) (mgl64.Vec3, error) {
	axis := strings.ToLower(strings.TrimSpace(s))
	sign := 1.0
	switch {
	case strings.HasPrefix(axis, "-"):
		sign = -1
		axis = axis[1:]
	case strings.HasPrefix(axis, "+"):
		axis = axis[1:]
	}
	switch axis {
	case "x":
		return mgl64.Vec3{sign, 0, 0}, nil
	case "y":
		return mgl64.Vec3{0, sign, 0}, nil
	case "z":
		return mgl64.Vec3{0, 0, sign}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("%w: unknown axis %q", ErrInvalidScenario, s)
}

func vec3(field string, v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidScenario, field, len(v))
	}
	if !finite(v...) {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s must be finite", ErrInvalidScenario, field)
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	for _, ext := range []string{".zst", ".yaml", ".yml", ".json"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
