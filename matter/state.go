package matter

import (
	"fmt"

	"github.com/kinodyn/kinodyn/spatial"
)

// Mobility is the model-stage metadata for one generalized speed: which
// body it belongs to, its offsets into the q and u vectors, and whether it
// is rotational.
type Mobility struct {
	Body    BodyID
	QIndex  int
	UIndex  int
	Angular bool
}

// State carries the minimal generalized state of one trajectory: the q, u,
// and udot vectors, time, the realized stage marker, and the kinematic
// cache populated by the per-stage realize hooks. All of it lives in the
// State value itself, never in shared globals, so a Clone is fully
// independent and usable on another goroutine.
//
// A State is single-writer: concurrent reads are safe only while nothing
// mutates q/u/t or realizes stages on it.
type State struct {
	stage Stage
	t     float64
	q     Vector
	u     Vector
	udot  Vector
	cache kinematicCache
}

// kinematicCache holds the stage-gated derived quantities. Per-body
// spatial quantities are expressed in the Ground frame unless stated
// otherwise. Shapes are fixed by the Tree; constraint-error vectors are
// sized by the hooks that populate them.
type kinematicCache struct {
	bodyTransform []spatial.Transform
	bodyVelocity  []spatial.SpatialVec
	bodyAccel     []spatial.SpatialVec

	qErr, uErr, udotErr    Vector
	qErrW, uErrW, udotErrW Vector

	massProps     []spatial.MassProperties
	frameInParent []spatial.Transform
	frameInBody   []spatial.Transform

	mobilities []Mobility
}

// NewState allocates a state for the given tree, realized to Topology.
func NewState(t *Tree) *State {
	n := t.NumBodies()
	s := &State{
		stage: StageTopology,
		q:     make(Vector, t.NumQ()),
		u:     make(Vector, t.NumU()),
		udot:  make(Vector, t.NumU()),
		cache: kinematicCache{
			bodyTransform: make([]spatial.Transform, n),
			bodyVelocity:  make([]spatial.SpatialVec, n),
			bodyAccel:     make([]spatial.SpatialVec, n),
			massProps:     make([]spatial.MassProperties, n),
			frameInParent: make([]spatial.Transform, n),
			frameInBody:   make([]spatial.Transform, n),
		},
	}
	for i := range s.cache.bodyTransform {
		s.cache.bodyTransform[i] = spatial.IdentityTransform()
		s.cache.frameInParent[i] = spatial.IdentityTransform()
		s.cache.frameInBody[i] = spatial.IdentityTransform()
	}
	return s
}

// Clone deep-copies the state, including the cache and realized stage, for
// independent use on another goroutine.
func (s *State) Clone() *State {
	c := &State{
		stage: s.stage,
		t:     s.t,
		q:     s.q.Clone(),
		u:     s.u.Clone(),
		udot:  s.udot.Clone(),
	}
	c.cache = kinematicCache{
		bodyTransform: append([]spatial.Transform(nil), s.cache.bodyTransform...),
		bodyVelocity:  append([]spatial.SpatialVec(nil), s.cache.bodyVelocity...),
		bodyAccel:     append([]spatial.SpatialVec(nil), s.cache.bodyAccel...),
		qErr:          s.cache.qErr.Clone(),
		uErr:          s.cache.uErr.Clone(),
		udotErr:       s.cache.udotErr.Clone(),
		qErrW:         s.cache.qErrW.Clone(),
		uErrW:         s.cache.uErrW.Clone(),
		udotErrW:      s.cache.udotErrW.Clone(),
		massProps:     append([]spatial.MassProperties(nil), s.cache.massProps...),
		frameInParent: append([]spatial.Transform(nil), s.cache.frameInParent...),
		frameInBody:   append([]spatial.Transform(nil), s.cache.frameInBody...),
		mobilities:    append([]Mobility(nil), s.cache.mobilities...),
	}
	return c
}

// Stage is the realized stage marker, an O(1) read.
func (s *State) Stage() Stage { return s.stage }

func (s *State) Time() float64 { return s.t }

// SetTime invalidates everything from Time stage up.
func (s *State) SetTime(t float64) {
	s.t = t
	s.Invalidate(StageTime)
}

// Q returns a copy of the generalized coordinates.
func (s *State) Q() Vector { return s.q.Clone() }

// U returns a copy of the generalized speeds.
func (s *State) U() Vector { return s.u.Clone() }

// UDot returns a copy of the generalized accelerations.
func (s *State) UDot() Vector { return s.udot.Clone() }

// SetQ mutates one generalized coordinate, dropping the realized stage
// below Position.
func (s *State) SetQ(i int, v float64) error {
	if i < 0 || i >= len(s.q) {
		return &DomainError{Op: "SetQ", Detail: fmt.Sprintf("coordinate index %d out of range [0,%d)", i, len(s.q))}
	}
	s.q[i] = v
	s.Invalidate(StagePosition)
	return nil
}

// SetU mutates one generalized speed, dropping the realized stage below
// Velocity.
func (s *State) SetU(i int, v float64) error {
	if i < 0 || i >= len(s.u) {
		return &DomainError{Op: "SetU", Detail: fmt.Sprintf("speed index %d out of range [0,%d)", i, len(s.u))}
	}
	s.u[i] = v
	s.Invalidate(StageVelocity)
	return nil
}

// SetQVector replaces the whole q vector.
func (s *State) SetQVector(q Vector) error {
	if len(q) != len(s.q) {
		return &DomainError{Op: "SetQVector", Detail: fmt.Sprintf("got %d coordinates, tree has %d", len(q), len(s.q))}
	}
	copy(s.q, q)
	s.Invalidate(StagePosition)
	return nil
}

// SetUVector replaces the whole u vector.
func (s *State) SetUVector(u Vector) error {
	if len(u) != len(s.u) {
		return &DomainError{Op: "SetUVector", Detail: fmt.Sprintf("got %d speeds, tree has %d", len(u), len(s.u))}
	}
	copy(s.u, u)
	s.Invalidate(StageVelocity)
	return nil
}

// SetUDotVector replaces the whole udot vector, for realizers that
// propagate externally supplied generalized accelerations.
func (s *State) SetUDotVector(udot Vector) error {
	if len(udot) != len(s.udot) {
		return &DomainError{Op: "SetUDotVector", Detail: fmt.Sprintf("got %d accelerations, tree has %d", len(udot), len(s.udot))}
	}
	copy(s.udot, udot)
	s.Invalidate(StageAcceleration)
	return nil
}

// Invalidate lowers the realized stage to just below atOrBelow. Raising the
// stage back up is only ever explicit, through Subsystem.Realize.
func (s *State) Invalidate(atOrBelow Stage) {
	if s.stage >= atOrBelow {
		s.stage = atOrBelow - 1
	}
}

func (s *State) require(op string, st Stage) error {
	if s.stage < st {
		return &StageViolationError{Op: op, Required: st, Actual: s.stage}
	}
	return nil
}

// SetQErrWeights installs diagonal weights for the position-level
// constraint errors. Weights must be positive; the default is all ones.
func (s *State) SetQErrWeights(w Vector) error {
	return setWeights("SetQErrWeights", &s.cache.qErrW, w)
}

// SetUErrWeights installs diagonal weights for the velocity-level
// constraint errors.
func (s *State) SetUErrWeights(w Vector) error {
	return setWeights("SetUErrWeights", &s.cache.uErrW, w)
}

func setWeights(op string, dst *Vector, w Vector) error {
	for i, wi := range w {
		if wi <= 0 {
			return &DomainError{Op: op, Detail: fmt.Sprintf("weight %d is %g, must be positive", i, wi)}
		}
	}
	*dst = w.Clone()
	return nil
}
