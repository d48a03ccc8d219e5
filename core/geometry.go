package core

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ProjectionResult is the area of a mesh projected against a query
// direction together with the area-weighted centre of the contributing
// faces.
type ProjectionResult struct {
	Area   float64
	Center mgl64.Vec3
	Faces  int // number of triangles that faced the query direction
}

// GeometryReport summarises a transformed mesh for one evaluation.
type GeometryReport struct {
	TriangleCount   int
	DegenerateCount int
	SurfaceArea     float64
	// Centroid is the area-weighted centroid of the surface; it is the
	// fallback pressure centre when nothing faces the flow.
	Centroid mgl64.Vec3
	Volume   float64
	Frontal  ProjectionResult // faces into the free stream
	Planform ProjectionResult // faces seen from above the body
}

// SurfaceArea returns the total area of all non-degenerate triangles.
func SurfaceArea(src TriangleSource) float64 {
	if src == nil {
		return 0
	}
	total := 0.0
	for i, n := 0, src.TriangleCount(); i < n; i++ {
		total += src.Triangle(i).Area()
	}
	return total
}

// ProjectedAreaAndPressureCenter projects every triangle whose outward
// normal points against dir (i.e. faces into a flow travelling along dir)
// and returns the summed projected area and its weighted centre. When no
// triangle faces the flow, Area is 0 and Center is fallback.
func ProjectedAreaAndPressureCenter(src TriangleSource, dir, fallback mgl64.Vec3) ProjectionResult {
	if src == nil {
		return ProjectionResult{Center: fallback}
	}
	into := normalizeOrZero(dir).Mul(-1)
	var acc projectionSum
	for i, n := 0, src.TriangleCount(); i < n; i++ {
		acc.add(src.Triangle(i), into)
	}
	return acc.result(fallback)
}

// EnclosedVolume sums the signed tetrahedra spanned by each triangle and
// the origin and returns the magnitude. Only meaningful for closed meshes
// positioned near the origin.
func EnclosedVolume(src TriangleSource) float64 {
	if src == nil {
		return 0
	}
	total := 0.0
	for i, n := 0, src.TriangleCount(); i < n; i++ {
		total += signedVolume(src.Triangle(i))
	}
	return math.Abs(total)
}

// SurfaceCentroid returns the area-weighted centroid of the surface and
// false when the mesh has no area.
func SurfaceCentroid(src TriangleSource) (mgl64.Vec3, bool) {
	if src == nil {
		return mgl64.Vec3{}, false
	}
	var area float64
	var moment mgl64.Vec3
	for i, n := 0, src.TriangleCount(); i < n; i++ {
		t := src.Triangle(i)
		a := t.Area()
		if a == 0 {
			continue
		}
		area += a
		moment = moment.Add(t.Centroid().Mul(a))
	}
	if area <= Epsilon {
		return mgl64.Vec3{}, false
	}
	return moment.Mul(1 / area), true
}

func signedVolume(t Triangle) float64 {
	if t.Degenerate() {
		return 0
	}
	return t.V0.Dot(t.V1.Cross(t.V2)) / 6
}

type projectionSum struct {
	weight float64
	moment mgl64.Vec3
	faces  int
}

// add accumulates t when its normal has a positive component along into.
func (p *projectionSum) add(t Triangle, into mgl64.Vec3) {
	n := t.Normal()
	cos := n.Dot(into)
	if !(cos > 0) {
		return
	}
	w := t.Area() * cos
	p.weight += w
	p.moment = p.moment.Add(t.Centroid().Mul(w))
	p.faces++
}

func (p *projectionSum) merge(o projectionSum) {
	p.weight += o.weight
	p.moment = p.moment.Add(o.moment)
	p.faces += o.faces
}

func (p projectionSum) result(fallback mgl64.Vec3) ProjectionResult {
	if p.weight <= 0 {
		return ProjectionResult{Center: fallback}
	}
	return ProjectionResult{
		Area:   p.weight,
		Center: p.moment.Mul(1 / p.weight),
		Faces:  p.faces,
	}
}

// geometrySums holds every per-triangle reduction the analyzer needs so a
// single pass over the mesh fills the whole report.
type geometrySums struct {
	triangles  int
	degenerate int
	area       float64
	moment     mgl64.Vec3
	volume     float64
	frontal    projectionSum
	planform   projectionSum
}

func (g *geometrySums) add(t Triangle, intoFlow, intoPlan mgl64.Vec3) {
	g.triangles++
	a := t.Area()
	if a == 0 {
		g.degenerate++
		return
	}
	g.area += a
	g.moment = g.moment.Add(t.Centroid().Mul(a))
	g.volume += signedVolume(t)
	g.frontal.add(t, intoFlow)
	g.planform.add(t, intoPlan)
}

func (g *geometrySums) merge(o geometrySums) {
	g.triangles += o.triangles
	g.degenerate += o.degenerate
	g.area += o.area
	g.moment = g.moment.Add(o.moment)
	g.volume += o.volume
	g.frontal.merge(o.frontal)
	g.planform.merge(o.planform)
}

// Analyzer computes a GeometryReport, optionally splitting the triangle
// loop across goroutines. Parallel and serial runs use the same inclusion
// tests and fallbacks; only summation order differs.
type Analyzer struct {
	// Workers is the number of goroutines; <= 1 runs serially, and a
	// negative value uses GOMAXPROCS.
	Workers int
	// MinTrianglesPerWorker avoids goroutine overhead on small meshes.
	MinTrianglesPerWorker int
}

// DefaultAnalyzer runs serially.
func DefaultAnalyzer() Analyzer {
	return Analyzer{Workers: 1, MinTrianglesPerWorker: 2048}
}

// Analyze reduces src into a GeometryReport. flowDir is the direction the
// free stream travels; up is the body up axis used for the planform view.
func (a Analyzer) Analyze(src TriangleSource, flowDir, up mgl64.Vec3) GeometryReport {
	intoFlow := normalizeOrZero(flowDir).Mul(-1)
	intoPlan := normalizeOrZero(up)

	var sums geometrySums
	if src != nil {
		sums = a.reduce(src, intoFlow, intoPlan)
	}

	report := GeometryReport{
		TriangleCount:   sums.triangles,
		DegenerateCount: sums.degenerate,
		SurfaceArea:     sums.area,
		Volume:          math.Abs(sums.volume),
	}
	if sums.area > Epsilon {
		report.Centroid = sums.moment.Mul(1 / sums.area)
	}
	report.Frontal = sums.frontal.result(report.Centroid)
	report.Planform = sums.planform.result(report.Centroid)
	return report
}

func (a Analyzer) reduce(src TriangleSource, intoFlow, intoPlan mgl64.Vec3) geometrySums {
	n := src.TriangleCount()
	workers := a.Workers
	if workers < 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	minChunk := a.MinTrianglesPerWorker
	if minChunk <= 0 {
		minChunk = 1
	}
	if maxWorkers := n / minChunk; workers > maxWorkers {
		workers = maxWorkers
	}

	if workers <= 1 {
		var sums geometrySums
		for i := 0; i < n; i++ {
			sums.add(src.Triangle(i), intoFlow, intoPlan)
		}
		return sums
	}

	partial := make([]geometrySums, workers)
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				partial[w].add(src.Triangle(i), intoFlow, intoPlan)
			}
		}(w, lo, hi)
	}
	wg.Wait()

	var sums geometrySums
	for _, p := range partial {
		sums.merge(p)
	}
	return sums
}
