package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/aero-overlay/core"
)

// EvaluationCollector exposes per-evaluation estimator metrics. It
// satisfies core.MetricsRecorder.
type EvaluationCollector struct {
	gatherer prometheus.Gatherer

	Evaluations        prometheus.Counter
	EvaluationDuration prometheus.Histogram
	DegenerateFaces    prometheus.Counter

	MeshTriangles prometheus.Gauge
	LiftNewtons   prometheus.Gauge
	DragNewtons   prometheus.Gauge
	PitchMoment   prometheus.Gauge
	Mach          prometheus.Gauge
	AlphaDegrees  prometheus.Gauge
}

// NewEvaluationCollector registers estimator metrics against the provided
// registerer, defaulting to the global registry when nil.
func NewEvaluationCollector(reg prometheus.Registerer) (*EvaluationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aero_evaluations_total",
		Help: "Total number of aerodynamic evaluations performed.",
	}), "aero_evaluations_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aero_evaluation_duration_seconds",
		Help:    "Wall-clock time of a single aerodynamic evaluation.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "aero_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	degenerate, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aero_degenerate_triangles_total",
		Help: "Degenerate (zero-area) triangles skipped during evaluations.",
	}), "aero_degenerate_triangles_total")
	if err != nil {
		return nil, err
	}

	c := &EvaluationCollector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationDuration: duration,
		DegenerateFaces:    degenerate,
	}

	gauges := []struct {
		name, help string
		dst        *prometheus.Gauge
	}{
		{"aero_mesh_triangles", "Triangle count of the most recently evaluated mesh.", &c.MeshTriangles},
		{"aero_lift_newtons", "Lift of the most recent evaluation in newtons.", &c.LiftNewtons},
		{"aero_drag_newtons", "Drag of the most recent evaluation in newtons.", &c.DragNewtons},
		{"aero_pitch_moment_newton_meters", "Pitching moment of the most recent evaluation.", &c.PitchMoment},
		{"aero_mach", "Free-stream Mach number of the most recent evaluation.", &c.Mach},
		{"aero_alpha_degrees", "Angle of attack of the most recent evaluation.", &c.AlphaDegrees},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EvaluationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// RecordEvaluation updates all metrics from one estimator result.
func (c *EvaluationCollector) RecordEvaluation(d time.Duration, out core.AeroOutput) {
	if c == nil {
		return
	}
	if c.Evaluations != nil {
		c.Evaluations.Inc()
	}
	if c.EvaluationDuration != nil {
		c.EvaluationDuration.Observe(d.Seconds())
	}
	if c.DegenerateFaces != nil && out.Geometry.DegenerateCount > 0 {
		c.DegenerateFaces.Add(float64(out.Geometry.DegenerateCount))
	}
	setGauge(c.MeshTriangles, float64(out.Geometry.TriangleCount))
	setGauge(c.LiftNewtons, out.Forces.Lift)
	setGauge(c.DragNewtons, out.Forces.Drag)
	setGauge(c.PitchMoment, out.Forces.PitchMoment)
	setGauge(c.Mach, out.Flow.Mach)
	setGauge(c.AlphaDegrees, out.Angles.AlphaDeg)
}

func setGauge(g prometheus.Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
