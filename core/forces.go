package core

import "github.com/go-gl/mathgl/mgl64"

// Forces are dimensional loads in newtons and newton-metres.
type Forces struct {
	Lift        float64
	Drag        float64
	PitchMoment float64

	LiftVector   mgl64.Vec3
	DragVector   mgl64.Vec3
	MomentVector mgl64.Vec3 // about the pitch axis
}

// ResolveForces scales coefficients by q·S (and q·S·L for the moment) and
// orients them along the supplied axes. Directions are normalized here;
// zero directions produce zero vectors.
func ResolveForces(flow FlowState, refArea, refLength float64, c Coefficients, liftDir, dragDir, pitchAxis mgl64.Vec3) Forces {
	qS := flow.DynamicPressure * refArea
	lift := qS * c.Cl
	drag := qS * c.Cd
	moment := c.Cm * qS * refLength

	return Forces{
		Lift:         lift,
		Drag:         drag,
		PitchMoment:  moment,
		LiftVector:   normalizeOrZero(liftDir).Mul(lift),
		DragVector:   normalizeOrZero(dragDir).Mul(drag),
		MomentVector: normalizeOrZero(pitchAxis).Mul(moment),
	}
}
