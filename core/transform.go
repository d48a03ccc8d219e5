package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine world transform built as translation · rotation ·
// scale. The zero value behaves as the identity.
type Transform struct {
	m      mgl64.Mat4
	linear mgl64.Mat3
	normal mgl64.Mat3
	// singular is set when the linear part cannot be inverted (a zero
	// scale axis); normals then fall back to the direction transform.
	singular bool
	set      bool
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return NewTransformFromMatrix(mgl64.Ident4())
}

// NewTransform composes translation, rotation and per-axis scale.
func NewTransform(translation mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) Transform {
	t := mgl64.Translate3D(translation.X(), translation.Y(), translation.Z())
	r := rotation.Normalize().Mat4()
	s := mgl64.Scale3D(scale.X(), scale.Y(), scale.Z())
	return NewTransformFromMatrix(t.Mul4(r).Mul4(s))
}

// NewTransformFromMatrix wraps an existing affine matrix.
func NewTransformFromMatrix(m mgl64.Mat4) Transform {
	linear := mgl64.Mat3FromCols(m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3())
	tr := Transform{m: m, linear: linear, set: true}
	if math.Abs(linear.Det()) < Epsilon {
		tr.singular = true
		tr.normal = linear
	} else {
		tr.normal = linear.Inv().Transpose()
	}
	return tr
}

// FromEulerDeg builds a rotation from roll (about X), pitch (about Y) and
// yaw (about Z), applied in roll, pitch, yaw order.
func FromEulerDeg(rollDeg, pitchDeg, yawDeg float64) mgl64.Quat {
	roll := mgl64.QuatRotate(mgl64.DegToRad(rollDeg), mgl64.Vec3{1, 0, 0})
	pitch := mgl64.QuatRotate(mgl64.DegToRad(pitchDeg), mgl64.Vec3{0, 1, 0})
	yaw := mgl64.QuatRotate(mgl64.DegToRad(yawDeg), mgl64.Vec3{0, 0, 1})
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// Matrix returns the underlying 4x4 matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	if !t.set {
		return mgl64.Ident4()
	}
	return t.m
}

// TransformPoint applies the full affine transform to a position.
func (t Transform) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	if !t.set {
		return p
	}
	return t.m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies the linear part only; the result is not
// renormalized.
func (t Transform) TransformDirection(d mgl64.Vec3) mgl64.Vec3 {
	if !t.set {
		return d
	}
	return t.linear.Mul3x1(d)
}

// TransformNormal maps a surface normal with the inverse-transpose of the
// linear part and renormalizes it, so normals stay perpendicular to
// transformed surfaces under non-uniform scale.
func (t Transform) TransformNormal(n mgl64.Vec3) mgl64.Vec3 {
	if !t.set {
		return normalizeOrZero(n)
	}
	return normalizeOrZero(t.normal.Mul3x1(n))
}

// BodyFrame is a right-handed orthonormal triad attached to a body.
// Lateral completes the triad as Up × Forward.
type BodyFrame struct {
	Forward mgl64.Vec3
	Lateral mgl64.Vec3
	Up      mgl64.Vec3
}

// DefaultBodyFrame is +X forward, +Y lateral, +Z up.
func DefaultBodyFrame() BodyFrame {
	return BodyFrame{
		Forward: mgl64.Vec3{1, 0, 0},
		Lateral: mgl64.Vec3{0, 1, 0},
		Up:      mgl64.Vec3{0, 0, 1},
	}
}

// FrameFromTransform rotates the mesh-local forward and up axes into world
// space and orthonormalizes them. Zero or parallel local axes fall back to
// +X forward / +Z up.
func FrameFromTransform(t Transform, localForward, localUp mgl64.Vec3) BodyFrame {
	if localForward.Len() < Epsilon {
		localForward = mgl64.Vec3{1, 0, 0}
	}
	if localUp.Len() < Epsilon {
		localUp = mgl64.Vec3{0, 0, 1}
	}

	forward := normalizeOrZero(t.TransformDirection(localForward))
	up := t.TransformDirection(localUp)
	if forward == (mgl64.Vec3{}) {
		return DefaultBodyFrame()
	}

	// Gram-Schmidt: remove the forward component from up.
	up = normalizeOrZero(up.Sub(forward.Mul(up.Dot(forward))))
	if up == (mgl64.Vec3{}) {
		up = anyPerpendicular(forward)
	}
	lateral := normalizeOrZero(up.Cross(forward))
	return BodyFrame{Forward: forward, Lateral: lateral, Up: up}
}

func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

func anyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{0, 0, 1}
	if math.Abs(v.Dot(axis)) > 0.9 {
		axis = mgl64.Vec3{1, 0, 0}
	}
	return normalizeOrZero(axis.Sub(v.Mul(axis.Dot(v))))
}
