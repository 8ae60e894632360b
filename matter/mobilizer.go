package matter

import "github.com/kinodyn/kinodyn/spatial"

// Mobilizer maps a body's generalized coordinates q to the cross-mobilizer
// transform X_FM (moving frame M in the parent-fixed frame F), and its
// generalized speeds u to the cross-mobilizer spatial velocity, measured
// and expressed in F. The q and u slices passed in hold exactly NumQ() and
// NumU() entries for this mobilizer.
type Mobilizer interface {
	NumQ() int
	NumU() int
	Transform(q []float64) spatial.Transform
	Velocity(q, u []float64) spatial.SpatialVec
	Acceleration(q, u, udot []float64) spatial.SpatialVec
	// Angular reports whether the i'th mobility is rotational, which the
	// model stage records as per-mobility metadata.
	Angular(i int) bool
}

// Pin is a one-dof rotational mobilizer about the common z axis of the F
// and M frames. q[0] is the angle in radians, u[0] = qdot[0].
type Pin struct{}

func (Pin) NumQ() int { return 1 }
func (Pin) NumU() int { return 1 }

func (Pin) Transform(q []float64) spatial.Transform {
	return spatial.NewTransform(spatial.RotZ(q[0]), spatial.Vec3{})
}

func (Pin) Velocity(_, u []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Ang: spatial.Vec3{Z: u[0]}}
}

func (Pin) Acceleration(_, _, udot []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Ang: spatial.Vec3{Z: udot[0]}}
}

func (Pin) Angular(int) bool { return true }

// Slider is a one-dof translational mobilizer along the common x axis.
// q[0] is the displacement, u[0] = qdot[0].
type Slider struct{}

func (Slider) NumQ() int { return 1 }
func (Slider) NumU() int { return 1 }

func (Slider) Transform(q []float64) spatial.Transform {
	return spatial.Translation(spatial.Vec3{X: q[0]})
}

func (Slider) Velocity(_, u []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Lin: spatial.Vec3{X: u[0]}}
}

func (Slider) Acceleration(_, _, udot []float64) spatial.SpatialVec {
	return spatial.SpatialVec{Lin: spatial.Vec3{X: udot[0]}}
}

func (Slider) Angular(int) bool { return false }

// Weld rigidly attaches a body to its parent. Zero mobilities.
type Weld struct{}

func (Weld) NumQ() int { return 0 }
func (Weld) NumU() int { return 0 }

func (Weld) Transform([]float64) spatial.Transform {
	return spatial.IdentityTransform()
}

func (Weld) Velocity(_, _ []float64) spatial.SpatialVec {
	return spatial.SpatialVec{}
}

func (Weld) Acceleration(_, _, _ []float64) spatial.SpatialVec {
	return spatial.SpatialVec{}
}

func (Weld) Angular(int) bool { return false }
