package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/aero-overlay/internal/polarplot"
)

func TestRunWritesTableAndImages(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "plate.yaml")
	doc := "name: plate\nflow: {airspeed_ms: 25}\npolar: {cl_alpha: 5.7, aspect_ratio: 6, oswald: 0.8}\n"
	if err := os.WriteFile(scenarioPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	var out bytes.Buffer
	img := filepath.Join(dir, "plate.svg")
	sweep := polarplot.Sweep{MinDeg: -4, MaxDeg: 4, StepDeg: 2}
	if err := run(context.Background(), scenarioPath, img, sweep, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// header + 5 samples + 2 "wrote" lines
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8:\n%s", len(lines), out.String())
	}
	for _, p := range []string{img, filepath.Join(dir, "plate-polar.svg")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
}

func TestRunRejectsBadSweep(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "plate.yaml")
	if err := os.WriteFile(scenarioPath, []byte("name: plate\n"), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	err := run(context.Background(), scenarioPath, filepath.Join(dir, "x.png"), polarplot.Sweep{MinDeg: 1, MaxDeg: 0, StepDeg: 1}, nil, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected sweep validation error")
	}
}
