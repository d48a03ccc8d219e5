package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var axisDirections = []struct {
	name string
	dir  mgl64.Vec3
}{
	{"+X", mgl64.Vec3{1, 0, 0}},
	{"-X", mgl64.Vec3{-1, 0, 0}},
	{"+Y", mgl64.Vec3{0, 1, 0}},
	{"-Y", mgl64.Vec3{0, -1, 0}},
	{"+Z", mgl64.Vec3{0, 0, 1}},
	{"-Z", mgl64.Vec3{0, 0, -1}},
}

// fannedCube triangulates each face of a unit cube as a fan around the face
// centre, giving a different triangulation than Box.
func fannedCube() TriangleList {
	box := Bake(Box(1, 1, 1))
	var out TriangleList
	for i := 0; i < len(box); i += 2 {
		a, b := box[i], box[i+1]
		quad := [4]mgl64.Vec3{a.V0, a.V1, a.V2, b.V2}
		centre := quad[0].Add(quad[1]).Add(quad[2]).Add(quad[3]).Mul(0.25)
		for k := 0; k < 4; k++ {
			out = append(out, Triangle{V0: centre, V1: quad[k], V2: quad[(k+1)%4]})
		}
	}
	return out
}

func withDegenerates(src TriangleSource) TriangleList {
	out := append(TriangleList{}, Bake(src)...)
	out = append(out,
		Triangle{},
		Triangle{V0: mgl64.Vec3{0, 0, 0}, V1: mgl64.Vec3{1, 1, 1}, V2: mgl64.Vec3{2, 2, 2}},
		Triangle{V0: mgl64.Vec3{0.5, 0.5, 0.5}, V1: mgl64.Vec3{0.5, 0.5, 0.5}, V2: mgl64.Vec3{-3, 2, 1}},
	)
	return out
}

func TestTriangle_DegenerateHasNoAreaOrNormal(t *testing.T) {
	tri := Triangle{V0: mgl64.Vec3{0, 0, 0}, V1: mgl64.Vec3{1, 0, 0}, V2: mgl64.Vec3{2, 0, 0}}

	if !tri.Degenerate() {
		t.Fatalf("collinear triangle should be degenerate")
	}
	if tri.Area() != 0 {
		t.Fatalf("Area() = %v, want 0", tri.Area())
	}
	if n := tri.Normal(); n != (mgl64.Vec3{}) {
		t.Fatalf("Normal() = %v, want zero vector", n)
	}
}

func TestTriangle_RightHandNormal(t *testing.T) {
	tri := Triangle{V0: mgl64.Vec3{0, 0, 0}, V1: mgl64.Vec3{2, 0, 0}, V2: mgl64.Vec3{0, 2, 0}}

	if got := tri.Normal(); !got.ApproxEqual(mgl64.Vec3{0, 0, 1}) {
		t.Fatalf("Normal() = %v, want +Z", got)
	}
	if got := tri.Area(); got != 2 {
		t.Fatalf("Area() = %v, want 2", got)
	}
	if got := tri.Centroid(); !got.ApproxEqual(mgl64.Vec3{2.0 / 3, 2.0 / 3, 0}) {
		t.Fatalf("Centroid() = %v", got)
	}
}

func TestSurfaceArea_UnitCube(t *testing.T) {
	if got := SurfaceArea(Box(1, 1, 1)); math.Abs(got-6) > 1e-12 {
		t.Fatalf("SurfaceArea = %v, want 6", got)
	}
	if got := SurfaceArea(fannedCube()); math.Abs(got-6) > 1e-12 {
		t.Fatalf("SurfaceArea(fanned) = %v, want 6", got)
	}
}

func TestProjectedArea_UnitCubeAlongFaceNormals(t *testing.T) {
	meshes := map[string]TriangleSource{
		"split": Box(1, 1, 1),
		"fan":   fannedCube(),
	}
	for meshName, mesh := range meshes {
		for _, d := range axisDirections {
			t.Run(meshName+d.name, func(t *testing.T) {
				res := ProjectedAreaAndPressureCenter(mesh, d.dir, mgl64.Vec3{9, 9, 9})
				if res.Area != 1.0 {
					t.Fatalf("projected area = %v, want exactly 1", res.Area)
				}
				// The face centre sits half a unit upstream of the origin.
				want := d.dir.Mul(-0.5)
				if !res.Center.ApproxEqualThreshold(want, 1e-12) {
					t.Fatalf("pressure centre = %v, want %v", res.Center, want)
				}
			})
		}
	}
}

func TestProjectedArea_ObliqueCube(t *testing.T) {
	dir := mgl64.Vec3{-1, -1, 0}.Normalize()
	res := ProjectedAreaAndPressureCenter(Box(1, 1, 1), dir, mgl64.Vec3{})

	if math.Abs(res.Area-math.Sqrt2) > 1e-12 {
		t.Fatalf("projected area = %v, want sqrt(2)", res.Area)
	}
	if res.Faces != 4 {
		t.Fatalf("faces = %d, want 4", res.Faces)
	}
}

func TestProjectedArea_NothingFacingUsesFallback(t *testing.T) {
	// A single +Z facing triangle cannot be hit by flow travelling +Z.
	tri := TriangleList{{V0: mgl64.Vec3{0, 0, 0}, V1: mgl64.Vec3{1, 0, 0}, V2: mgl64.Vec3{0, 1, 0}}}
	fallback := mgl64.Vec3{4, 5, 6}

	res := ProjectedAreaAndPressureCenter(tri, mgl64.Vec3{0, 0, 1}, fallback)
	if res.Area != 0 || res.Center != fallback {
		t.Fatalf("result = %+v, want zero area at fallback %v", res, fallback)
	}

	res = ProjectedAreaAndPressureCenter(nil, mgl64.Vec3{0, 0, 1}, fallback)
	if res.Area != 0 || res.Center != fallback {
		t.Fatalf("nil mesh result = %+v, want zero area at fallback", res)
	}

	res = ProjectedAreaAndPressureCenter(tri, mgl64.Vec3{}, fallback)
	if res.Area != 0 || res.Center != fallback {
		t.Fatalf("zero direction result = %+v, want zero area at fallback", res)
	}
}

func TestEnclosedVolume_UnitCube(t *testing.T) {
	if got := EnclosedVolume(Box(1, 1, 1)); math.Abs(got-1) > 1e-4 {
		t.Fatalf("EnclosedVolume = %v, want 1", got)
	}

	// Reversed winding only flips the sign before the absolute value.
	box := Bake(Box(1, 1, 1))
	flipped := make(TriangleList, len(box))
	for i, tri := range box {
		flipped[i] = Triangle{V0: tri.V0, V1: tri.V2, V2: tri.V1}
	}
	if got := EnclosedVolume(flipped); math.Abs(got-1) > 1e-4 {
		t.Fatalf("EnclosedVolume(flipped) = %v, want 1", got)
	}

	offset := Bake(TransformedSource{
		Source:    Box(1, 1, 1),
		Transform: NewTransform(mgl64.Vec3{0.2, -0.1, 0.3}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}),
	})
	if got := EnclosedVolume(offset); math.Abs(got-1) > 1e-4 {
		t.Fatalf("EnclosedVolume(offset) = %v, want 1", got)
	}
}

func TestEnclosedVolume_Sphere(t *testing.T) {
	got := EnclosedVolume(UVSphere(1, 48, 96))
	want := 4.0 / 3.0 * math.Pi
	if !withinRel(got, want, 0.01) {
		t.Fatalf("EnclosedVolume(sphere) = %v, want ~%v", got, want)
	}
}

func TestDegenerateTrianglesDoNotChangeResults(t *testing.T) {
	base := Box(1, 1, 1)
	noisy := withDegenerates(base)
	dir := mgl64.Vec3{-1, -0.3, 0.2}.Normalize()

	if a, b := SurfaceArea(base), SurfaceArea(noisy); a != b {
		t.Fatalf("SurfaceArea changed: %v -> %v", a, b)
	}
	if a, b := EnclosedVolume(base), EnclosedVolume(noisy); a != b {
		t.Fatalf("EnclosedVolume changed: %v -> %v", a, b)
	}
	pa := ProjectedAreaAndPressureCenter(base, dir, mgl64.Vec3{})
	pb := ProjectedAreaAndPressureCenter(noisy, dir, mgl64.Vec3{})
	if pa != pb {
		t.Fatalf("projection changed: %+v -> %+v", pa, pb)
	}
}

func TestPressureCenter_SymmetricMeshStaysOnPlane(t *testing.T) {
	// Both meshes are mirror-symmetric about y = 0 and the flow lies in
	// the xz-plane.
	dir := mgl64.Vec3{-1, 0, -0.4}.Normalize()
	box := TransformedSource{
		Source:    Box(2, 1, 0.5),
		Transform: NewTransform(mgl64.Vec3{0.3, 0, 0.1}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}),
	}
	cases := []struct {
		name string
		mesh TriangleSource
		tol  float64
	}{
		{"box", box, 1e-12},
		{"sphere", UVSphere(1.5, 16, 32), 1e-5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ProjectedAreaAndPressureCenter(tc.mesh, dir, mgl64.Vec3{})
			if res.Area <= 0 {
				t.Fatalf("projected area = %v, want > 0", res.Area)
			}
			if math.Abs(res.Center.Y()) > tc.tol {
				t.Fatalf("pressure centre y = %v, want 0", res.Center.Y())
			}
		})
	}
}

func TestSurfaceCentroid(t *testing.T) {
	mesh := TransformedSource{
		Source:    Box(1, 2, 3),
		Transform: NewTransform(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}),
	}
	c, ok := SurfaceCentroid(mesh)
	if !ok || !c.ApproxEqualThreshold(mgl64.Vec3{1, 2, 3}, 1e-9) {
		t.Fatalf("SurfaceCentroid = %v, %v; want (1,2,3), true", c, ok)
	}
	if _, ok := SurfaceCentroid(TriangleList{{}}); ok {
		t.Fatalf("degenerate-only mesh should report no centroid")
	}
}

func TestAnalyzer_ReportForBox(t *testing.T) {
	mesh := Box(2, 1, 0.5)
	report := DefaultAnalyzer().Analyze(withDegenerates(mesh), mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1})

	if report.TriangleCount != 15 || report.DegenerateCount != 3 {
		t.Fatalf("counts = %d/%d, want 15/3", report.TriangleCount, report.DegenerateCount)
	}
	if math.Abs(report.SurfaceArea-7) > 1e-12 {
		t.Fatalf("SurfaceArea = %v, want 7", report.SurfaceArea)
	}
	if math.Abs(report.Volume-1) > 1e-9 {
		t.Fatalf("Volume = %v, want 1", report.Volume)
	}
	if math.Abs(report.Frontal.Area-0.5) > 1e-12 {
		t.Fatalf("frontal area = %v, want 0.5", report.Frontal.Area)
	}
	if math.Abs(report.Planform.Area-2) > 1e-12 {
		t.Fatalf("planform area = %v, want 2", report.Planform.Area)
	}
	if !report.Frontal.Center.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Fatalf("frontal centre = %v, want (1,0,0)", report.Frontal.Center)
	}
}

func TestAnalyzer_EmptyMeshFallsBackToCentroid(t *testing.T) {
	report := DefaultAnalyzer().Analyze(nil, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1})

	if report != (GeometryReport{}) {
		t.Fatalf("report = %+v, want zero value", report)
	}
}

func TestAnalyzer_ParallelMatchesSerial(t *testing.T) {
	mesh := Bake(TransformedSource{
		Source:    UVSphere(2, 40, 80),
		Transform: NewTransform(mgl64.Vec3{0.5, 0.1, -0.2}, FromEulerDeg(10, 20, 30), mgl64.Vec3{3, 1, 0.5}),
	})
	dir := mgl64.Vec3{-1, 0.2, -0.1}
	up := mgl64.Vec3{0, 0, 1}

	serial := DefaultAnalyzer().Analyze(mesh, dir, up)
	for _, workers := range []int{2, 3, 7, -1} {
		parallel := Analyzer{Workers: workers, MinTrianglesPerWorker: 16}.Analyze(mesh, dir, up)

		if parallel.TriangleCount != serial.TriangleCount || parallel.DegenerateCount != serial.DegenerateCount {
			t.Fatalf("workers=%d counts differ: %+v vs %+v", workers, parallel, serial)
		}
		if parallel.Frontal.Faces != serial.Frontal.Faces || parallel.Planform.Faces != serial.Planform.Faces {
			t.Fatalf("workers=%d face counts differ", workers)
		}
		pairs := [][2]float64{
			{parallel.SurfaceArea, serial.SurfaceArea},
			{parallel.Volume, serial.Volume},
			{parallel.Frontal.Area, serial.Frontal.Area},
			{parallel.Planform.Area, serial.Planform.Area},
		}
		for _, p := range pairs {
			if math.Abs(p[0]-p[1]) > 1e-9 {
				t.Fatalf("workers=%d value %v, want %v", workers, p[0], p[1])
			}
		}
		if !parallel.Frontal.Center.ApproxEqualThreshold(serial.Frontal.Center, 1e-9) {
			t.Fatalf("workers=%d frontal centre %v, want %v", workers, parallel.Frontal.Center, serial.Frontal.Center)
		}
	}
}
