package core

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/model"
)

const tracerName = "github.com/signalsfoundry/aero-overlay/core"

// unitReference replaces a reference area (m²) or length (m) that neither
// the caller nor the mesh could provide.
const unitReference = 1.0

// Inputs is everything a single evaluation needs. Mesh is in model-local
// space and is transformed by Transform; it is never modified.
type Inputs struct {
	Mesh      TriangleSource
	Transform Transform

	// LocalForward and LocalUp are the mesh's own forward and up axes;
	// zero values mean +X and +Z.
	LocalForward mgl64.Vec3
	LocalUp      mgl64.Vec3

	Flow  model.FlowConditions
	Polar model.PolarParams
}

// AeroOutput is the complete result of one evaluation.
type AeroOutput struct {
	Flow         FlowState
	Frame        BodyFrame
	Angles       FlowAngles
	Coefficients Coefficients
	Forces       Forces
	Geometry     GeometryReport

	ReferenceArea   float64
	ReferenceLength float64
	WettedRatio     float64
	// PressureCenter is the point of force application in world space.
	PressureCenter mgl64.Vec3
}

// MetricsRecorder receives one record per evaluation.
type MetricsRecorder interface {
	RecordEvaluation(d time.Duration, out AeroOutput)
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithMetricsRecorder attaches an optional metrics sink.
func WithMetricsRecorder(m MetricsRecorder) EstimatorOption {
	return func(e *Estimator) {
		e.metrics = m
	}
}

// WithAnalyzer overrides the geometry analyzer, e.g. to enable parallel
// reductions for large meshes.
func WithAnalyzer(a Analyzer) EstimatorOption {
	return func(e *Estimator) {
		e.analyzer = a
	}
}

// Estimator runs the aerodynamic estimate. It holds no per-evaluation
// state and is safe for concurrent use.
type Estimator struct {
	log      logging.Logger
	metrics  MetricsRecorder
	analyzer Analyzer
	tracer   trace.Tracer
}

// NewEstimator constructs an Estimator. A nil logger discards logs.
func NewEstimator(log logging.Logger, opts ...EstimatorOption) *Estimator {
	if log == nil {
		log = logging.Noop()
	}
	e := &Estimator{
		log:      log,
		analyzer: DefaultAnalyzer(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the flow state, coefficients and loads for in. It
// always returns a finite result for finite inputs.
func (e *Estimator) Evaluate(ctx context.Context, in Inputs) AeroOutput {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	count := 0
	if in.Mesh != nil {
		count = in.Mesh.TriangleCount()
	}
	ctx, span := e.tracer.Start(ctx, "aero.Evaluate", trace.WithAttributes(
		attribute.Int("mesh.triangles", count),
	))
	defer span.End()

	flow := in.Flow.ApplyDefaults()
	polar := in.Polar.ApplyDefaults()

	frame := FrameFromTransform(in.Transform, in.LocalForward, in.LocalUp)
	world := Bake(TransformedSource{Source: in.Mesh, Transform: in.Transform})
	geom := e.analyzer.Analyze(world, flow.Direction, frame.Up)

	refArea := flow.ReferenceAreaM2
	switch {
	case refArea > 0:
	case geom.Planform.Area > Epsilon:
		refArea = geom.Planform.Area
	case geom.Frontal.Area > Epsilon:
		refArea = geom.Frontal.Area
	default:
		refArea = unitReference
	}
	refLength := flow.ReferenceLengthM
	if refLength <= 0 {
		refLength = unitReference
	}

	wetted := polar.WettedAreaRatio
	if geom.SurfaceArea > Epsilon {
		wetted = geom.SurfaceArea / refArea
	}

	atm := Atmosphere(flow.AltitudeM, flow.DeltaTK)
	state := ComputeFlowState(atm, flow.AirspeedMS, flow.CharLengthM)
	angles := AnglesFromFlow(flow.Direction, frame)
	coeffs := ComputeCoefficients(angles.Alpha, polar, state.Reynolds, state.Mach, wetted)
	forces := ResolveForces(state, refArea, refLength, coeffs, angles.LiftDir, angles.DragDir, frame.Lateral)

	out := AeroOutput{
		Flow:            state,
		Frame:           frame,
		Angles:          angles,
		Coefficients:    coeffs,
		Forces:          forces,
		Geometry:        geom,
		ReferenceArea:   refArea,
		ReferenceLength: refLength,
		WettedRatio:     wetted,
		PressureCenter:  geom.Frontal.Center,
	}

	span.SetAttributes(
		attribute.Float64("aero.alpha_deg", angles.AlphaDeg),
		attribute.Float64("aero.mach", state.Mach),
		attribute.Float64("aero.lift_n", forces.Lift),
		attribute.Float64("aero.drag_n", forces.Drag),
	)

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordEvaluation(elapsed, out)
	}
	e.log.Debug(ctx, "aero evaluation",
		logging.Int("triangles", geom.TriangleCount),
		logging.Float64("alpha_deg", angles.AlphaDeg),
		logging.Float64("mach", state.Mach),
		logging.Float64("reynolds", state.Reynolds),
		logging.Float64("cl", coeffs.Cl),
		logging.Float64("cd", coeffs.Cd),
		logging.Duration("elapsed", elapsed),
	)
	return out
}
