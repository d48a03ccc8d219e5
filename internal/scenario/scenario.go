// Package scenario loads body/flow descriptions from YAML documents and
// turns them into estimator inputs.
package scenario

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/model"
)

// Scenario is a validated, defaulted scenario ready for evaluation.
type Scenario struct {
	Name      string
	Flow      model.FlowConditions
	Polar     model.PolarParams
	Pose      Pose
	Mesh      *core.IndexedMesh // nil when the scenario carries no geometry
	Animation Animation
}

// Pose places the body mesh in world space.
type Pose struct {
	Translation mgl64.Vec3
	RollDeg     float64
	PitchDeg    float64
	YawDeg      float64
	Scale       mgl64.Vec3

	// LocalForward and LocalUp are the mesh's own axes.
	LocalForward mgl64.Vec3
	LocalUp      mgl64.Vec3
}

// DefaultPose is the identity placement with +X forward and +Z up.
func DefaultPose() Pose {
	return Pose{
		Scale:        mgl64.Vec3{1, 1, 1},
		LocalForward: mgl64.Vec3{1, 0, 0},
		LocalUp:      mgl64.Vec3{0, 0, 1},
	}
}

// Transform builds the world transform for the pose.
func (p Pose) Transform() core.Transform {
	return core.NewTransform(p.Translation, core.FromEulerDeg(p.RollDeg, p.PitchDeg, p.YawDeg), p.Scale)
}

// Animation rotates the pose at constant rates, in degrees per second.
type Animation struct {
	PitchRateDPS float64
	YawRateDPS   float64
}

// Static reports whether the animation leaves the pose unchanged.
func (a Animation) Static() bool {
	return a.PitchRateDPS == 0 && a.YawRateDPS == 0
}

// PoseAt returns the pose after elapsed simulated time.
func (s *Scenario) PoseAt(elapsed time.Duration) Pose {
	p := s.Pose
	secs := elapsed.Seconds()
	p.PitchDeg += s.Animation.PitchRateDPS * secs
	p.YawDeg += s.Animation.YawRateDPS * secs
	return p
}

// Inputs returns the estimator inputs for the scenario's rest pose.
func (s *Scenario) Inputs() core.Inputs {
	return s.InputsAt(0)
}

// InputsAt returns the estimator inputs with the animation advanced by
// elapsed.
func (s *Scenario) InputsAt(elapsed time.Duration) core.Inputs {
	pose := s.PoseAt(elapsed)
	in := core.Inputs{
		Transform:    pose.Transform(),
		LocalForward: pose.LocalForward,
		LocalUp:      pose.LocalUp,
		Flow:         s.Flow,
		Polar:        s.Polar,
	}
	if s.Mesh != nil {
		in.Mesh = s.Mesh
	}
	return in
}
