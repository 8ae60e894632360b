package matter

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kinodyn/kinodyn/spatial"
)

// ConstraintClass distinguishes how deep a constraint reaches into the
// state derivatives.
type ConstraintClass int

const (
	// Holonomic constraints restrict positions; their time derivatives
	// restrict velocities and accelerations too.
	Holonomic ConstraintClass = iota
	// Nonholonomic constraints restrict velocities only.
	Nonholonomic
	// AccelerationOnly constraints restrict accelerations only.
	AccelerationOnly
)

// Constraint contributes equations to the per-stage constraint-error
// vectors. During realization constraints read the state through the
// unchecked Cached* accessors, since the stage marker is raised only after
// the hook finishes. A stage a constraint does not reach leaves its dst
// rows zero.
type Constraint interface {
	Class() ConstraintClass
	NumEquations() int
	PositionErrors(s *State, dst Vector) error
	VelocityErrors(s *State, dst Vector) error
	AccelerationErrors(s *State, dst Vector) error
}

// QJacobianConstraint is optionally implemented by constraints whose
// position-error rows have a cheap analytic derivative with respect to q.
// Rows are written into dst starting at rowOffset; a false return means
// the analytic form is unavailable at this state.
type QJacobianConstraint interface {
	QJacobianRows(s *State, rowOffset int, dst *mat.Dense) bool
}

// UJacobianConstraint is the velocity-level analog.
type UJacobianConstraint interface {
	UJacobianRows(s *State, rowOffset int, dst *mat.Dense) bool
}

// Rod is a holonomic point-to-point distance constraint: the station on
// body A must stay at the given distance from the station on body B.
// One equation: |p_A - p_B| - length.
type Rod struct {
	BodyA, BodyB       BodyID
	StationA, StationB spatial.Vec3
	Length             float64
}

func (r *Rod) Class() ConstraintClass { return Holonomic }
func (r *Rod) NumEquations() int      { return 1 }

func (r *Rod) separation(s *State) (sep spatial.Vec3, dist float64) {
	pA := s.CachedBodyTransform(r.BodyA).Apply(r.StationA)
	pB := s.CachedBodyTransform(r.BodyB).Apply(r.StationB)
	sep = pA.Sub(pB)
	return sep, sep.Norm()
}

func (r *Rod) PositionErrors(s *State, dst Vector) error {
	_, d := r.separation(s)
	dst[0] = d - r.Length
	return nil
}

func (r *Rod) VelocityErrors(s *State, dst Vector) error {
	sep, d := r.separation(s)
	if d == 0 {
		dst[0] = 0
		return nil
	}
	vA := stationVelocityInGround(s, r.BodyA, r.StationA)
	vB := stationVelocityInGround(s, r.BodyB, r.StationB)
	dst[0] = sep.Dot(vA.Sub(vB)) / d
	return nil
}

func (r *Rod) AccelerationErrors(s *State, dst Vector) error {
	sep, d := r.separation(s)
	if d == 0 {
		dst[0] = 0
		return nil
	}
	vA := stationVelocityInGround(s, r.BodyA, r.StationA)
	vB := stationVelocityInGround(s, r.BodyB, r.StationB)
	aA := stationAccelerationInGround(s, r.BodyA, r.StationA)
	aB := stationAccelerationInGround(s, r.BodyB, r.StationB)
	dv := vA.Sub(vB)
	ddot := sep.Dot(dv) / d
	dst[0] = (dv.Dot(dv)+sep.Dot(aA.Sub(aB)))/d - ddot*ddot/d
	return nil
}

// CoordinateLock is a holonomic constraint pinning one generalized
// coordinate to a target value. It is the simplest useful constraint and
// carries exact analytic Jacobians.
type CoordinateLock struct {
	QIndex int
	UIndex int
	Target float64
}

func (c *CoordinateLock) Class() ConstraintClass { return Holonomic }
func (c *CoordinateLock) NumEquations() int      { return 1 }

func (c *CoordinateLock) PositionErrors(s *State, dst Vector) error {
	dst[0] = s.q[c.QIndex] - c.Target
	return nil
}

func (c *CoordinateLock) VelocityErrors(s *State, dst Vector) error {
	dst[0] = s.u[c.UIndex]
	return nil
}

func (c *CoordinateLock) AccelerationErrors(s *State, dst Vector) error {
	dst[0] = s.udot[c.UIndex]
	return nil
}

func (c *CoordinateLock) QJacobianRows(s *State, rowOffset int, dst *mat.Dense) bool {
	for j := 0; j < len(s.q); j++ {
		dst.Set(rowOffset, j, 0)
	}
	dst.Set(rowOffset, c.QIndex, 1)
	return true
}

func (c *CoordinateLock) UJacobianRows(s *State, rowOffset int, dst *mat.Dense) bool {
	for j := 0; j < len(s.u); j++ {
		dst.Set(rowOffset, j, 0)
	}
	dst.Set(rowOffset, c.UIndex, 1)
	return true
}

// stationVelocityInGround is the cache-level transport used by constraint
// evaluation, before stage gating applies.
func stationVelocityInGround(s *State, b BodyID, station spatial.Vec3) spatial.Vec3 {
	x := s.CachedBodyTransform(b)
	v := s.CachedBodyVelocity(b)
	return v.ShiftVelocity(x.R.Apply(station)).Lin
}

func stationAccelerationInGround(s *State, b BodyID, station spatial.Vec3) spatial.Vec3 {
	x := s.CachedBodyTransform(b)
	v := s.CachedBodyVelocity(b)
	a := s.CachedBodyAcceleration(b)
	return a.ShiftAcceleration(v.Ang, x.R.Apply(station)).Lin
}
