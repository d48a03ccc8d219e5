package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/internal/polarplot"
	"github.com/signalsfoundry/aero-overlay/internal/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/glider.yaml", "scenario file (.yaml, .json, optionally .zst)")
	out := flag.String("out", "polar.png", "output image; the extension selects the format")
	minDeg := flag.Float64("min-deg", -20, "first angle of attack in degrees")
	maxDeg := flag.Float64("max-deg", 20, "last angle of attack in degrees")
	stepDeg := flag.Float64("step-deg", 1, "angle of attack step in degrees")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	sweep := polarplot.Sweep{MinDeg: *minDeg, MaxDeg: *maxDeg, StepDeg: *stepDeg}
	if err := run(ctx, *scenarioPath, *out, sweep, log, os.Stdout); err != nil {
		log.Error(ctx, "polar sweep failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, scenarioPath, out string, sweep polarplot.Sweep, log logging.Logger, w io.Writer) error {
	sc, err := scenario.LoadFile(scenarioPath)
	if err != nil {
		return err
	}

	samples, err := polarplot.Run(ctx, core.NewEstimator(log), sc.Inputs(), sweep)
	if err != nil {
		return err
	}
	paths, err := polarplot.Render(samples, sc.Name, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%8s %9s %9s %9s\n", "alpha", "Cl", "Cd", "Cm")
	for _, s := range samples {
		fmt.Fprintf(w, "%8.2f %+9.4f %9.4f %+9.4f\n", s.AlphaDeg, s.Cl, s.Cd, s.Cm)
	}
	for _, p := range paths {
		fmt.Fprintf(w, "wrote %s\n", p)
	}
	return nil
}
