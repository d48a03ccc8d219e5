package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FlowAngles is the decomposition of the free stream in the body frame.
type FlowAngles struct {
	Alpha    float64 // angle of attack, radians
	Beta     float64 // sideslip, radians
	AlphaDeg float64
	BetaDeg  float64

	// FlowHat points into the oncoming flow (opposite the free stream).
	FlowHat mgl64.Vec3
	// DragDir is the unit direction drag acts along: the free-stream
	// direction.
	DragDir mgl64.Vec3
	// LiftDir is perpendicular to the flow in the body pitch plane.
	LiftDir mgl64.Vec3
	// SideDir completes the right-handed (drag, lift, side) triad.
	SideDir mgl64.Vec3

	// Vx, Vy, Vz are FlowHat's forward, lateral and vertical components.
	Vx, Vy, Vz float64
}

// AnglesFromFlow computes angle of attack and sideslip plus the lift/drag
// axes for a free stream travelling along flowDir past a body with the
// given frame. A zero flowDir is treated as head-on flow.
func AnglesFromFlow(flowDir mgl64.Vec3, frame BodyFrame) FlowAngles {
	flowHat := normalizeOrZero(flowDir.Mul(-1))
	if flowHat == (mgl64.Vec3{}) {
		flowHat = frame.Forward
	}

	vx := flowHat.Dot(frame.Forward)
	vy := flowHat.Dot(frame.Lateral)
	vz := flowHat.Dot(frame.Up)

	alpha := math.Atan2(vz, vx)
	beta := math.Atan2(vy, math.Sqrt(vx*vx+vz*vz))

	dragDir := flowHat.Mul(-1)
	liftDir := normalizeOrZero(frame.Up.Mul(vx).Sub(frame.Forward.Mul(vz)))
	if liftDir == (mgl64.Vec3{}) {
		// Pure sideslip: the pitch-plane projection of the flow vanishes.
		liftDir = frame.Up
	}
	sideDir := normalizeOrZero(dragDir.Cross(liftDir))

	return FlowAngles{
		Alpha:    alpha,
		Beta:     beta,
		AlphaDeg: mgl64.RadToDeg(alpha),
		BetaDeg:  mgl64.RadToDeg(beta),
		FlowHat:  flowHat,
		DragDir:  dragDir,
		LiftDir:  liftDir,
		SideDir:  sideDir,
		Vx:       vx,
		Vy:       vy,
		Vz:       vz,
	}
}
