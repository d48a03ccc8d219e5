package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/internal/scenario"
	"github.com/signalsfoundry/aero-overlay/kb"
	"github.com/signalsfoundry/aero-overlay/timectrl"
)

// Config holds the overlay's command-line configuration.
type Config struct {
	ScenarioPath string
	Frames       int
	FPS          float64
	Accelerated  bool
	Workers      int
}

func main() {
	scenarioPath := flag.String("scenario", "configs/glider.yaml", "scenario file (.yaml, .json, optionally .zst)")
	frames := flag.Int("frames", 120, "number of frames to evaluate (<=0 runs until interrupted)")
	fps := flag.Float64("fps", 30, "frame rate")
	accelerated := flag.Bool("accelerated", true, "run frames back to back instead of in real time")
	workers := flag.Int("workers", 1, "geometry reduction workers (<0 uses GOMAXPROCS)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := Config{
		ScenarioPath: *scenarioPath,
		Frames:       *frames,
		FPS:          *fps,
		Accelerated:  *accelerated,
		Workers:      *workers,
	}
	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "overlay failed", logging.Err(err))
		os.Exit(1)
	}
}

// run loads the scenario into a body store, advances its animation once
// per frame and prints one overlay line per evaluation.
func run(ctx context.Context, cfg Config, log logging.Logger, w io.Writer) error {
	if log == nil {
		log = logging.Noop()
	}

	sc, err := scenario.LoadFile(cfg.ScenarioPath)
	if err != nil {
		return err
	}

	store := kb.NewBodyStore()
	if err := store.AddBody(sc.Name, *sc); err != nil {
		return err
	}

	analyzer := core.DefaultAnalyzer()
	analyzer.Workers = cfg.Workers
	estimator := core.NewEstimator(log, core.WithAnalyzer(analyzer))

	// Re-evaluate whenever the body changes.
	var evalErr error
	store.Subscribe(func(e kb.Event) {
		if e.Type != kb.EventBodyUpdated {
			return
		}
		out := estimator.Evaluate(ctx, e.Body.Scenario.Inputs())
		if _, err := fmt.Fprintln(w, overlayLine(e.Body, out)); err != nil && evalErr == nil {
			evalErr = err
		}
	})

	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	clock := timectrl.NewFrameClock(time.Now().UTC(), timectrl.IntervalFromFPS(cfg.FPS), mode)

	clock.AddListener(func(f timectrl.Frame) {
		if err := store.UpdatePose(sc.Name, sc.PoseAt(f.Elapsed)); err != nil {
			log.Warn(ctx, "update pose failed", logging.String("body_id", sc.Name), logging.Err(err))
		}
	})

	log.Info(ctx, "starting overlay",
		logging.String("scenario", sc.Name),
		logging.Int("frames", cfg.Frames),
		logging.String("mode", mode.String()),
		logging.Duration("frame_interval", clock.FrameInterval),
	)
	<-clock.Run(ctx, cfg.Frames)
	log.Info(ctx, "overlay complete", logging.Duration("sim_elapsed", clock.Elapsed()))
	return evalErr
}

func overlayLine(b kb.Body, out core.AeroOutput) string {
	return fmt.Sprintf("[%s r%d] alpha=%6.2f° beta=%6.2f° M=%.3f Re=%.3g q=%8.1f Pa | Cl=%+.4f Cd=%.4f Cm=%+.4f | L=%9.2f N D=%9.2f N My=%+9.2f N·m",
		b.ID, b.Revision,
		out.Angles.AlphaDeg, out.Angles.BetaDeg,
		out.Flow.Mach, out.Flow.Reynolds, out.Flow.DynamicPressure,
		out.Coefficients.Cl, out.Coefficients.Cd, out.Coefficients.Cm,
		out.Forces.Lift, out.Forces.Drag, out.Forces.PitchMoment,
	)
}
