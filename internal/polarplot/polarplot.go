// Package polarplot sweeps angle of attack through the estimator and renders
// the resulting coefficient curves.
package polarplot

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/signalsfoundry/aero-overlay/core"
)

// maxSamples bounds a single sweep.
const maxSamples = 10000

// Sweep configures an alpha sweep in degrees.
type Sweep struct {
	MinDeg  float64
	MaxDeg  float64
	StepDeg float64
}

// DefaultSweep covers -20..+20 degrees in 1 degree steps.
func DefaultSweep() Sweep {
	return Sweep{MinDeg: -20, MaxDeg: 20, StepDeg: 1}
}

// Validate reports a sweep that is empty or too fine.
func (s Sweep) Validate() error {
	if math.IsNaN(s.MinDeg) || math.IsNaN(s.MaxDeg) || math.IsNaN(s.StepDeg) {
		return fmt.Errorf("sweep bounds must be numbers")
	}
	if s.StepDeg <= 0 {
		return fmt.Errorf("step must be > 0, got %v", s.StepDeg)
	}
	if s.MaxDeg < s.MinDeg {
		return fmt.Errorf("max %v below min %v", s.MaxDeg, s.MinDeg)
	}
	if n := (s.MaxDeg-s.MinDeg)/s.StepDeg + 1; n > maxSamples {
		return fmt.Errorf("sweep has %.0f samples, limit is %d", n, maxSamples)
	}
	return nil
}

// Sample is one point of the sweep.
type Sample struct {
	AlphaDeg float64
	Cl       float64
	Cd       float64
	Cm       float64
	Lift     float64
	Drag     float64
}

// Run evaluates base once per alpha. The free stream direction is rotated
// about the body lateral axis so the mesh and its transform stay fixed.
func Run(ctx context.Context, est *core.Estimator, base core.Inputs, sweep Sweep) ([]Sample, error) {
	if err := sweep.Validate(); err != nil {
		return nil, fmt.Errorf("polar sweep: %w", err)
	}
	if est == nil {
		est = core.NewEstimator(nil)
	}

	frame := core.FrameFromTransform(base.Transform, base.LocalForward, base.LocalUp)
	n := int(math.Floor((sweep.MaxDeg-sweep.MinDeg)/sweep.StepDeg+1e-9)) + 1
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return samples, err
		}
		alphaDeg := sweep.MinDeg + float64(i)*sweep.StepDeg
		in := base
		in.Flow.Direction = flowForAlpha(frame, mgl64.DegToRad(alphaDeg))

		out := est.Evaluate(ctx, in)
		samples = append(samples, Sample{
			AlphaDeg: alphaDeg,
			Cl:       out.Coefficients.Cl,
			Cd:       out.Coefficients.Cd,
			Cm:       out.Coefficients.Cm,
			Lift:     out.Forces.Lift,
			Drag:     out.Forces.Drag,
		})
	}
	return samples, nil
}

// flowForAlpha returns the free-stream direction that meets the body at
// angle of attack alpha with zero sideslip.
func flowForAlpha(frame core.BodyFrame, alpha float64) mgl64.Vec3 {
	upstream := frame.Forward.Mul(math.Cos(alpha)).Add(frame.Up.Mul(math.Sin(alpha)))
	return upstream.Mul(-1)
}

// Render writes the Cl, Cd and Cm curves against alpha to path and the
// drag polar (Cl against Cd) next to it as "<name>-polar<ext>". The image
// format follows the file extension (png, svg, pdf, ...). It returns the
// paths written.
func Render(samples []Sample, title, path string) ([]string, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("render polar: no samples")
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("render polar: %q has no file extension", path)
	}

	clPts := make(plotter.XYs, len(samples))
	cdPts := make(plotter.XYs, len(samples))
	cmPts := make(plotter.XYs, len(samples))
	polarPts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		clPts[i].X, clPts[i].Y = s.AlphaDeg, s.Cl
		cdPts[i].X, cdPts[i].Y = s.AlphaDeg, s.Cd
		cmPts[i].X, cmPts[i].Y = s.AlphaDeg, s.Cm
		polarPts[i].X, polarPts[i].Y = s.Cd, s.Cl
	}

	coeffs := plot.New()
	coeffs.Title.Text = strings.TrimSpace(title + " coefficients")
	coeffs.X.Label.Text = "alpha (deg)"
	coeffs.Y.Label.Text = "coefficient"
	coeffs.Add(plotter.NewGrid())
	if err := plotutil.AddLinePoints(coeffs,
		"Cl", clPts,
		"Cd", cdPts,
		"Cm", cmPts,
	); err != nil {
		return nil, fmt.Errorf("render polar: %w", err)
	}

	polar := plot.New()
	polar.Title.Text = strings.TrimSpace(title + " drag polar")
	polar.X.Label.Text = "Cd"
	polar.Y.Label.Text = "Cl"
	polar.Add(plotter.NewGrid())
	if err := plotutil.AddLinePoints(polar, "Cl(Cd)", polarPts); err != nil {
		return nil, fmt.Errorf("render polar: %w", err)
	}

	polarPath := strings.TrimSuffix(path, ext) + "-polar" + ext
	if err := coeffs.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	if err := polar.Save(6*vg.Inch, 5*vg.Inch, polarPath); err != nil {
		return nil, fmt.Errorf("save %s: %w", polarPath, err)
	}
	return []string{path, polarPath}, nil
}
