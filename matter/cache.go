package matter

import (
	"fmt"

	"github.com/kinodyn/kinodyn/spatial"
)

// Hook-facing cache mutators. These are the write half of the cache
// contract: realize hooks populate the cache through them while a stage is
// being computed, before the stage marker is raised. They perform no stage
// gating; everything else should read through the gated accessors on
// Subsystem.

// SetCachedBodyTransform stores body b's transform-to-Ground. The rotation
// is re-orthonormalized if composition roundoff has drifted past
// spatial.OrthoDriftTol.
func (s *State) SetCachedBodyTransform(b BodyID, x spatial.Transform) {
	if x.R.Drift() > spatial.OrthoDriftTol {
		x.R = x.R.Reorthonormalized()
	}
	s.cache.bodyTransform[b] = x
}

// SetCachedBodyVelocity stores body b's spatial velocity in Ground.
func (s *State) SetCachedBodyVelocity(b BodyID, v spatial.SpatialVec) {
	s.cache.bodyVelocity[b] = v
}

// SetCachedBodyAcceleration stores body b's spatial acceleration in Ground.
func (s *State) SetCachedBodyAcceleration(b BodyID, a spatial.SpatialVec) {
	s.cache.bodyAccel[b] = a
}

// SetCachedUDot stores the generalized accelerations computed by the
// acceleration-stage hook.
func (s *State) SetCachedUDot(ud Vector) {
	copy(s.udot, ud)
}

// SetQErr stores the position-level constraint errors. Weights keep their
// values if already sized to match, otherwise reset to ones.
func (s *State) SetQErr(e Vector) {
	s.cache.qErr = e.Clone()
	if len(s.cache.qErrW) != len(e) {
		s.cache.qErrW = ones(len(e))
	}
}

// SetUErr stores the velocity-level constraint errors.
func (s *State) SetUErr(e Vector) {
	s.cache.uErr = e.Clone()
	if len(s.cache.uErrW) != len(e) {
		s.cache.uErrW = ones(len(e))
	}
}

// SetUDotErr stores the acceleration-level constraint errors.
func (s *State) SetUDotErr(e Vector) {
	s.cache.udotErr = e.Clone()
	if len(s.cache.udotErrW) != len(e) {
		s.cache.udotErrW = ones(len(e))
	}
}

// SetCachedMassProperties stores body b's instance-stage mass properties.
func (s *State) SetCachedMassProperties(b BodyID, mp spatial.MassProperties) {
	s.cache.massProps[b] = mp
}

// SetCachedMobilizerFrames stores body b's instance-stage mobilizer frame
// offsets: X_PF on the parent and X_BM on the body.
func (s *State) SetCachedMobilizerFrames(b BodyID, inParent, inBody spatial.Transform) {
	s.cache.frameInParent[b] = inParent
	s.cache.frameInBody[b] = inBody
}

// SetMobilities stores the model-stage per-mobility metadata.
func (s *State) SetMobilities(m []Mobility) {
	s.cache.mobilities = append(s.cache.mobilities[:0], m...)
}

// CachedBodyTransform reads the cache without stage gating, for use by
// hooks and constraints during realization.
func (s *State) CachedBodyTransform(b BodyID) spatial.Transform {
	return s.cache.bodyTransform[b]
}

// CachedBodyVelocity reads the cache without stage gating.
func (s *State) CachedBodyVelocity(b BodyID) spatial.SpatialVec {
	return s.cache.bodyVelocity[b]
}

// CachedBodyAcceleration reads the cache without stage gating.
func (s *State) CachedBodyAcceleration(b BodyID) spatial.SpatialVec {
	return s.cache.bodyAccel[b]
}

// Gated read accessors. Each names its required stage and fails with a
// StageViolationError below it; none of them ever triggers realization.

// BodyTransform is X_GB, body b's frame measured and expressed in Ground.
// Requires Position stage.
func (sub *Subsystem) BodyTransform(s *State, b BodyID) (spatial.Transform, error) {
	if err := sub.checkBody("BodyTransform", b); err != nil {
		return spatial.Transform{}, err
	}
	if err := s.require("BodyTransform", StagePosition); err != nil {
		return spatial.Transform{}, err
	}
	return s.cache.bodyTransform[b], nil
}

// BodyVelocity is V_GB = {w_GB, v_GB}. Requires Velocity stage.
func (sub *Subsystem) BodyVelocity(s *State, b BodyID) (spatial.SpatialVec, error) {
	if err := sub.checkBody("BodyVelocity", b); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := s.require("BodyVelocity", StageVelocity); err != nil {
		return spatial.SpatialVec{}, err
	}
	return s.cache.bodyVelocity[b], nil
}

// BodyAcceleration is A_GB = {alpha_GB, a_GB}. Requires Acceleration stage.
func (sub *Subsystem) BodyAcceleration(s *State, b BodyID) (spatial.SpatialVec, error) {
	if err := sub.checkBody("BodyAcceleration", b); err != nil {
		return spatial.SpatialVec{}, err
	}
	if err := s.require("BodyAcceleration", StageAcceleration); err != nil {
		return spatial.SpatialVec{}, err
	}
	return s.cache.bodyAccel[b], nil
}

// QErr returns the unweighted position-level constraint errors. Requires
// Position stage.
func (sub *Subsystem) QErr(s *State) (Vector, error) {
	if err := s.require("QErr", StagePosition); err != nil {
		return nil, err
	}
	return s.cache.qErr.Clone(), nil
}

// QErrNorm is the weighted norm sqrt(e^T W e) of the position-level
// errors, the scalar an integrator must keep below tol.
func (sub *Subsystem) QErrNorm(s *State) (float64, error) {
	if err := s.require("QErrNorm", StagePosition); err != nil {
		return 0, err
	}
	return s.cache.qErr.WeightedNorm(s.cache.qErrW), nil
}

// UErr returns the unweighted velocity-level constraint errors. Requires
// Velocity stage.
func (sub *Subsystem) UErr(s *State) (Vector, error) {
	if err := s.require("UErr", StageVelocity); err != nil {
		return nil, err
	}
	return s.cache.uErr.Clone(), nil
}

// UErrNorm is the weighted norm of the velocity-level errors.
func (sub *Subsystem) UErrNorm(s *State) (float64, error) {
	if err := s.require("UErrNorm", StageVelocity); err != nil {
		return 0, err
	}
	return s.cache.uErr.WeightedNorm(s.cache.uErrW), nil
}

// UDotErr returns the unweighted acceleration-level constraint errors.
// Requires Acceleration stage.
func (sub *Subsystem) UDotErr(s *State) (Vector, error) {
	if err := s.require("UDotErr", StageAcceleration); err != nil {
		return nil, err
	}
	return s.cache.udotErr.Clone(), nil
}

// UDotErrNorm is the weighted norm of the acceleration-level errors.
func (sub *Subsystem) UDotErrNorm(s *State) (float64, error) {
	if err := s.require("UDotErrNorm", StageAcceleration); err != nil {
		return 0, err
	}
	return s.cache.udotErr.WeightedNorm(s.cache.udotErrW), nil
}

// BodyMassProperties returns body b's mass, mass center, and inertia about
// the body origin, expressed in the body frame. Requires Instance stage.
func (sub *Subsystem) BodyMassProperties(s *State, b BodyID) (spatial.MassProperties, error) {
	if err := sub.checkBody("BodyMassProperties", b); err != nil {
		return spatial.MassProperties{}, err
	}
	if err := s.require("BodyMassProperties", StageInstance); err != nil {
		return spatial.MassProperties{}, err
	}
	return s.cache.massProps[b], nil
}

// MobilizerFrames returns X_PF and X_BM for body b's mobilizer. Requires
// Instance stage.
func (sub *Subsystem) MobilizerFrames(s *State, b BodyID) (inParent, inBody spatial.Transform, err error) {
	if err := sub.checkBody("MobilizerFrames", b); err != nil {
		return spatial.Transform{}, spatial.Transform{}, err
	}
	if err := s.require("MobilizerFrames", StageInstance); err != nil {
		return spatial.Transform{}, spatial.Transform{}, err
	}
	return s.cache.frameInParent[b], s.cache.frameInBody[b], nil
}

// Mobilities returns the model-stage per-mobility metadata. Requires Model
// stage.
func (sub *Subsystem) Mobilities(s *State) ([]Mobility, error) {
	if err := s.require("Mobilities", StageModel); err != nil {
		return nil, err
	}
	return append([]Mobility(nil), s.cache.mobilities...), nil
}

// MobilizerQ reads one of body b's generalized coordinates. Requires Model
// stage, which fixes the per-mobility layout.
func (sub *Subsystem) MobilizerQ(s *State, b BodyID, mobility int) (float64, error) {
	if err := s.require("MobilizerQ", StageModel); err != nil {
		return 0, err
	}
	i, err := sub.mobilityIndex("MobilizerQ", b, mobility, true)
	if err != nil {
		return 0, err
	}
	return s.q[i], nil
}

// MobilizerU reads one of body b's generalized speeds. Requires Model
// stage.
func (sub *Subsystem) MobilizerU(s *State, b BodyID, mobility int) (float64, error) {
	if err := s.require("MobilizerU", StageModel); err != nil {
		return 0, err
	}
	i, err := sub.mobilityIndex("MobilizerU", b, mobility, false)
	if err != nil {
		return 0, err
	}
	return s.u[i], nil
}

// SetMobilizerQ writes one of body b's generalized coordinates, dropping
// the realized stage below Position.
func (sub *Subsystem) SetMobilizerQ(s *State, b BodyID, mobility int, v float64) error {
	i, err := sub.mobilityIndex("SetMobilizerQ", b, mobility, true)
	if err != nil {
		return err
	}
	return s.SetQ(i, v)
}

// SetMobilizerU writes one of body b's generalized speeds, dropping the
// realized stage below Velocity.
func (sub *Subsystem) SetMobilizerU(s *State, b BodyID, mobility int, v float64) error {
	i, err := sub.mobilityIndex("SetMobilizerU", b, mobility, false)
	if err != nil {
		return err
	}
	return s.SetU(i, v)
}

func (sub *Subsystem) mobilityIndex(op string, b BodyID, mobility int, forQ bool) (int, error) {
	if err := sub.checkBody(op, b); err != nil {
		return 0, err
	}
	if b == Ground {
		return 0, &DomainError{Op: op, Detail: "ground has no mobilities"}
	}
	mob := sub.tree.Body(b).Mobilizer
	n := mob.NumU()
	base := sub.tree.UIndex(b)
	if forQ {
		n = mob.NumQ()
		base = sub.tree.QIndex(b)
	}
	if mobility < 0 || mobility >= n {
		return 0, &DomainError{Op: op, Detail: fmt.Sprintf("mobility index %d out of range [0,%d) for body %d", mobility, n, b)}
	}
	return base + mobility, nil
}
