package matter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Realizer is the capability object supplying the per-stage realize hooks.
// The external dynamics implementation provides one; this package defines
// the contract each hook must satisfy:
//
//   - RealizeModel: per-mobility metadata (SetMobilities)
//   - RealizeInstance: per-body mass properties and mobilizer frames
//   - RealizeTime: time-dependent precalculations, often a no-op
//   - RealizePosition: per-body transform-to-Ground and position-level
//     constraint errors (SetCachedBodyTransform, SetQErr)
//   - RealizeVelocity: per-body spatial velocity and velocity-level errors
//   - RealizeDynamics: force-dependent precalculations, often a no-op
//   - RealizeAcceleration: per-body spatial acceleration, generalized
//     accelerations, and acceleration-level errors
//
// All cached spatial quantities are expressed in the Ground frame, and all
// shapes are fixed by the Tree. Hooks write through the SetCached*/Set*Err
// mutators and may read lower-stage results through the unchecked Cached*
// accessors.
type Realizer interface {
	RealizeModel(s *State) error
	RealizeInstance(s *State) error
	RealizeTime(s *State) error
	RealizePosition(s *State) error
	RealizeVelocity(s *State) error
	RealizeDynamics(s *State) error
	RealizeAcceleration(s *State) error
}

// QJacobianRealizer is optionally implemented by a Realizer that can
// assemble the position-constraint Jacobian dqerr/dq analytically. It
// reports false when it cannot, in which case the projector falls back to
// finite differences through RealizePosition.
type QJacobianRealizer interface {
	QJacobian(s *State, dst *mat.Dense) bool
}

// UJacobianRealizer is the velocity-level analog: duerr/du.
type UJacobianRealizer interface {
	UJacobian(s *State, dst *mat.Dense) bool
}

// Subsystem binds an immutable Tree to a Realizer and serves every staged
// query, the stage ladder, and the constraint projection solvers. It holds
// no per-trajectory data; all of that lives in States.
type Subsystem struct {
	tree     *Tree
	realizer Realizer

	// Optional capabilities are resolved once here rather than per call.
	qJac QJacobianRealizer
	uJac UJacobianRealizer
}

// NewSubsystem wires a tree to its realize hooks.
func NewSubsystem(t *Tree, r Realizer) (*Subsystem, error) {
	if t == nil {
		return nil, &DomainError{Op: "NewSubsystem", Detail: "nil tree"}
	}
	if r == nil {
		return nil, &DomainError{Op: "NewSubsystem", Detail: "nil realizer"}
	}
	sub := &Subsystem{tree: t, realizer: r}
	sub.qJac, _ = r.(QJacobianRealizer)
	sub.uJac, _ = r.(UJacobianRealizer)
	return sub, nil
}

// Tree returns the immutable topology.
func (sub *Subsystem) Tree() *Tree { return sub.tree }

// Stage is an O(1) read of the state's realized stage.
func (sub *Subsystem) Stage(s *State) Stage { return s.Stage() }

// Realize advances the state to the target stage, recomputing every stage
// between realized+1 and target in order through the realize hooks. It
// never recomputes already-realized stages and never runs implicitly on a
// read.
func (sub *Subsystem) Realize(s *State, target Stage) error {
	if !target.valid() {
		return &DomainError{Op: "Realize", Detail: fmt.Sprintf("invalid target stage %d", target)}
	}
	for s.stage < target {
		next := s.stage + 1
		var err error
		switch next {
		case StageTopology:
			// Reached only by a freshly invalidated-to-Empty state; the
			// tree itself is the topology result.
		case StageModel:
			err = sub.realizer.RealizeModel(s)
		case StageInstance:
			err = sub.realizer.RealizeInstance(s)
		case StageTime:
			err = sub.realizer.RealizeTime(s)
		case StagePosition:
			err = sub.realizer.RealizePosition(s)
		case StageVelocity:
			err = sub.realizer.RealizeVelocity(s)
		case StageDynamics:
			err = sub.realizer.RealizeDynamics(s)
		case StageAcceleration:
			err = sub.realizer.RealizeAcceleration(s)
		}
		if err != nil {
			return fmt.Errorf("matter: realize %s: %w", next, err)
		}
		s.stage = next
	}
	return nil
}

func (sub *Subsystem) checkBody(op string, b BodyID) error {
	if !sub.tree.validBody(b) {
		return &DomainError{Op: op, Detail: fmt.Sprintf("body id %d out of range [0,%d)", b, sub.tree.NumBodies())}
	}
	return nil
}
