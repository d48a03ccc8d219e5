package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTransform_ZeroValueIsIdentity(t *testing.T) {
	var tr Transform
	p := mgl64.Vec3{1, 2, 3}

	if got := tr.TransformPoint(p); got != p {
		t.Fatalf("TransformPoint = %v, want %v", got, p)
	}
	if got := tr.TransformDirection(p); got != p {
		t.Fatalf("TransformDirection = %v, want %v", got, p)
	}
	if got := tr.Matrix(); got != mgl64.Ident4() {
		t.Fatalf("Matrix = %v, want identity", got)
	}
}

func TestTransform_PointAndDirection(t *testing.T) {
	rot := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	tr := NewTransform(mgl64.Vec3{10, 0, 0}, rot, mgl64.Vec3{2, 2, 2})

	if got := tr.TransformPoint(mgl64.Vec3{1, 0, 0}); !got.ApproxEqualThreshold(mgl64.Vec3{10, 2, 0}, 1e-12) {
		t.Fatalf("TransformPoint = %v, want (10,2,0)", got)
	}
	if got := tr.TransformDirection(mgl64.Vec3{1, 0, 0}); !got.ApproxEqualThreshold(mgl64.Vec3{0, 2, 0}, 1e-12) {
		t.Fatalf("TransformDirection = %v, want (0,2,0)", got)
	}
}

func TestTransform_NormalsUseInverseTranspose(t *testing.T) {
	// A 45° slope stretched 4x along X: the forward-transformed normal is
	// no longer perpendicular to the surface, the inverse-transpose one is.
	tr := NewTransform(mgl64.Vec3{}, FromEulerDeg(0, 0, 30), mgl64.Vec3{4, 1, 1})
	tangent := mgl64.Vec3{1, 0, -1}
	normal := mgl64.Vec3{1, 0, 1}.Normalize()

	worldTangent := tr.TransformDirection(tangent)
	worldNormal := tr.TransformNormal(normal)

	if d := worldNormal.Dot(worldTangent); math.Abs(d) > 1e-12 {
		t.Fatalf("normal·tangent = %v, want 0", d)
	}
	if l := worldNormal.Len(); math.Abs(l-1) > 1e-12 {
		t.Fatalf("|normal| = %v, want 1", l)
	}
	if naive := tr.TransformDirection(normal); math.Abs(naive.Dot(worldTangent)) < 1e-3 {
		t.Fatalf("forward-transformed normal unexpectedly stays perpendicular")
	}
}

func TestTransform_NormalMatchesTriangleNormal(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{1, -2, 3}, FromEulerDeg(15, -40, 70), mgl64.Vec3{0.5, 3, 1.5})
	tri := Triangle{V0: mgl64.Vec3{0, 0, 0}, V1: mgl64.Vec3{1, 0.2, 0}, V2: mgl64.Vec3{0.1, 1, 0.3}}

	world := TransformedSource{Source: TriangleList{tri}, Transform: tr}.Triangle(0)
	if got, want := tr.TransformNormal(tri.Normal()), world.Normal(); !got.ApproxEqualThreshold(want, 1e-9) {
		t.Fatalf("TransformNormal = %v, want %v", got, want)
	}
}

func TestTransform_SingularScaleFallsBack(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 0})

	got := tr.TransformNormal(mgl64.Vec3{1, 0, 0})
	if math.IsNaN(got.X()) || !got.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Fatalf("TransformNormal on singular transform = %v, want (1,0,0)", got)
	}
}

func assertOrthonormalRightHanded(t *testing.T, f BodyFrame) {
	t.Helper()
	for name, v := range map[string]mgl64.Vec3{"forward": f.Forward, "lateral": f.Lateral, "up": f.Up} {
		if math.Abs(v.Len()-1) > 1e-9 {
			t.Fatalf("|%s| = %v, want 1", name, v.Len())
		}
	}
	if math.Abs(f.Forward.Dot(f.Lateral)) > 1e-9 || math.Abs(f.Forward.Dot(f.Up)) > 1e-9 || math.Abs(f.Lateral.Dot(f.Up)) > 1e-9 {
		t.Fatalf("frame not orthogonal: %+v", f)
	}
	if !f.Forward.Cross(f.Lateral).ApproxEqualThreshold(f.Up, 1e-9) {
		t.Fatalf("frame not right-handed: %+v", f)
	}
}

func TestFrameFromTransform(t *testing.T) {
	cases := []struct {
		name      string
		tr        Transform
		fwd, up   mgl64.Vec3
		wantFwd   mgl64.Vec3
		wantUp    mgl64.Vec3
		checkAxes bool
	}{
		{"identity", IdentityTransform(), mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, true},
		{"yaw 90", NewTransform(mgl64.Vec3{5, 5, 5}, FromEulerDeg(0, 0, 90), mgl64.Vec3{1, 1, 1}), mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}, true},
		{"gltf axes", IdentityTransform(), mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0}, true},
		{"skewed scale", NewTransform(mgl64.Vec3{}, FromEulerDeg(20, 35, -50), mgl64.Vec3{5, 0.2, 2}), mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, false},
		{"parallel axes", IdentityTransform(), mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := FrameFromTransform(tc.tr, tc.fwd, tc.up)
			assertOrthonormalRightHanded(t, f)
			if tc.checkAxes {
				if !f.Forward.ApproxEqualThreshold(tc.wantFwd, 1e-9) {
					t.Fatalf("Forward = %v, want %v", f.Forward, tc.wantFwd)
				}
				if !f.Up.ApproxEqualThreshold(tc.wantUp, 1e-9) {
					t.Fatalf("Up = %v, want %v", f.Up, tc.wantUp)
				}
			}
		})
	}
}
