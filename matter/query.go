package matter

import "github.com/kinodyn/kinodyn/spatial"

// Closed-form cross-frame queries, composed from cached per-body
// transforms, velocities, and accelerations. No query ever triggers
// realization; using one below its required stage is a stage violation.
// A "station" is a point fixed on (or moving relative to) a body,
// expressed in that body's frame.

// BodyTransformInBody returns X_BA, the pose of body A's frame measured
// and expressed in body B's frame. Requires Position stage.
func (sub *Subsystem) BodyTransformInBody(s *State, bodyA, inBodyB BodyID) (spatial.Transform, error) {
	if err := sub.checkQuery(s, "BodyTransformInBody", StagePosition, bodyA, inBodyB); err != nil {
		return spatial.Transform{}, err
	}
	return s.cache.bodyTransform[inBodyB].Inverse().Compose(s.cache.bodyTransform[bodyA]), nil
}

// BodyRotationInBody returns R_BA. Requires Position stage.
func (sub *Subsystem) BodyRotationInBody(s *State, bodyA, inBodyB BodyID) (spatial.Rotation, error) {
	x, err := sub.BodyTransformInBody(s, bodyA, inBodyB)
	return x.R, err
}

// BodyOriginLocationInBody returns the location of body A's origin
// measured from body B's origin, expressed in B. Requires Position stage.
func (sub *Subsystem) BodyOriginLocationInBody(s *State, bodyA, inBodyB BodyID) (spatial.Vec3, error) {
	x, err := sub.BodyTransformInBody(s, bodyA, inBodyB)
	return x.P, err
}

// StationLocation returns the Ground-frame location of a station on body
// b: X_GB * station. Requires Position stage.
func (sub *Subsystem) StationLocation(s *State, b BodyID, station spatial.Vec3) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "StationLocation", StagePosition, b); err != nil {
		return spatial.Vec3{}, err
	}
	return s.cache.bodyTransform[b].Apply(station), nil
}

// StationLocationInBody reexpresses a station on body B as the coincident
// station of body A: X_AG * (X_GB * station). Requires Position stage.
func (sub *Subsystem) StationLocationInBody(s *State, onBodyB BodyID, station spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "StationLocationInBody", StagePosition, onBodyB, inBodyA); err != nil {
		return spatial.Vec3{}, err
	}
	pG := s.cache.bodyTransform[onBodyB].Apply(station)
	return s.cache.bodyTransform[inBodyA].InverseApply(pG), nil
}

// VectorInGround reexpresses a body-frame vector in Ground. Requires
// Position stage.
func (sub *Subsystem) VectorInGround(s *State, b BodyID, v spatial.Vec3) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "VectorInGround", StagePosition, b); err != nil {
		return spatial.Vec3{}, err
	}
	return s.cache.bodyTransform[b].R.Apply(v), nil
}

// VectorInBody reexpresses a vector given in body B's frame into body A's
// frame. Requires Position stage.
func (sub *Subsystem) VectorInBody(s *State, onBodyB BodyID, v spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "VectorInBody", StagePosition, onBodyB, inBodyA); err != nil {
		return spatial.Vec3{}, err
	}
	vG := s.cache.bodyTransform[onBodyB].R.Apply(v)
	return s.cache.bodyTransform[inBodyA].R.InverseApply(vG), nil
}

// BodySpatialVelocityInBody returns the angular and linear velocity of
// body A's frame as observed from body B's (generally moving) frame,
// expressed in B. Requires Velocity stage.
func (sub *Subsystem) BodySpatialVelocityInBody(s *State, bodyA, inBodyB BodyID) (spatial.SpatialVec, error) {
	if err := sub.checkQuery(s, "BodySpatialVelocityInBody", StageVelocity, bodyA, inBodyB); err != nil {
		return spatial.SpatialVec{}, err
	}
	rBG := s.cache.bodyTransform[inBodyB].R.Inverse()
	vA, vB := s.cache.bodyVelocity[bodyA], s.cache.bodyVelocity[inBodyB]
	r := s.cache.bodyTransform[bodyA].P.Sub(s.cache.bodyTransform[inBodyB].P)
	return spatial.SpatialVec{
		Ang: rBG.Apply(vA.Ang.Sub(vB.Ang)),
		Lin: rBG.Apply(vA.Lin.Sub(vB.Lin).Sub(vB.Ang.Cross(r))),
	}, nil
}

// BodyAngularVelocityInBody returns w_BA expressed in B. Requires Velocity
// stage.
func (sub *Subsystem) BodyAngularVelocityInBody(s *State, bodyA, inBodyB BodyID) (spatial.Vec3, error) {
	v, err := sub.BodySpatialVelocityInBody(s, bodyA, inBodyB)
	return v.Ang, err
}

// BodyOriginVelocityInBody returns the velocity of body A's origin
// observed in B, expressed in B. Requires Velocity stage.
func (sub *Subsystem) BodyOriginVelocityInBody(s *State, bodyA, inBodyB BodyID) (spatial.Vec3, error) {
	v, err := sub.BodySpatialVelocityInBody(s, bodyA, inBodyB)
	return v.Lin, err
}

// StationVelocity returns the Ground-frame (inertial) velocity of a
// station fixed on body b: v_GB + w_GB x r. Requires Velocity stage.
func (sub *Subsystem) StationVelocity(s *State, b BodyID, station spatial.Vec3) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "StationVelocity", StageVelocity, b); err != nil {
		return spatial.Vec3{}, err
	}
	return stationVelocityInGround(s, b, station), nil
}

// MovingStationVelocity superposes the point's own velocity within body b
// (expressed in b) on the fixed-station transport. Requires Velocity
// stage.
func (sub *Subsystem) MovingStationVelocity(s *State, b BodyID, station, stationVel spatial.Vec3) (spatial.Vec3, error) {
	v, err := sub.StationVelocity(s, b, station)
	if err != nil {
		return spatial.Vec3{}, err
	}
	return v.Add(s.cache.bodyTransform[b].R.Apply(stationVel)), nil
}

// FixedStationVelocityInBody returns the velocity of a station fixed on
// body B as observed from body A's moving frame, expressed in A. Requires
// Velocity stage.
func (sub *Subsystem) FixedStationVelocityInBody(s *State, onBodyB BodyID, station spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	return sub.MovingStationVelocityInBody(s, onBodyB, station, spatial.Vec3{}, inBodyA)
}

// MovingStationVelocityInBody additionally superposes the point's local
// velocity within body B. Requires Velocity stage.
func (sub *Subsystem) MovingStationVelocityInBody(s *State, onBodyB BodyID, station, stationVel spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "MovingStationVelocityInBody", StageVelocity, onBodyB, inBodyA); err != nil {
		return spatial.Vec3{}, err
	}
	xA := s.cache.bodyTransform[inBodyA]
	vA := s.cache.bodyVelocity[inBodyA]

	pG := s.cache.bodyTransform[onBodyB].Apply(station)
	vG := stationVelocityInGround(s, onBodyB, station).
		Add(s.cache.bodyTransform[onBodyB].R.Apply(stationVel))

	// Derivative taken in A's rotating frame: subtract A-origin motion and
	// the observer rotation term.
	r := pG.Sub(xA.P)
	return xA.R.InverseApply(vG.Sub(vA.Lin).Sub(vA.Ang.Cross(r))), nil
}

// BodySpatialAccelerationInBody returns the angular and linear
// acceleration of body A observed from body B's moving frame, expressed in
// B, with the observer's Euler, centripetal, and Coriolis contributions
// removed. Requires Acceleration stage.
func (sub *Subsystem) BodySpatialAccelerationInBody(s *State, bodyA, inBodyB BodyID) (spatial.SpatialVec, error) {
	if err := sub.checkQuery(s, "BodySpatialAccelerationInBody", StageAcceleration, bodyA, inBodyB); err != nil {
		return spatial.SpatialVec{}, err
	}
	xB := s.cache.bodyTransform[inBodyB]
	vB := s.cache.bodyVelocity[inBodyB]
	aB := s.cache.bodyAccel[inBodyB]
	vA := s.cache.bodyVelocity[bodyA]
	aA := s.cache.bodyAccel[bodyA]

	ang := aA.Ang.Sub(aB.Ang).Sub(vB.Ang.Cross(vA.Ang.Sub(vB.Ang)))
	lin := relPointAccel(xB, vB, aB,
		s.cache.bodyTransform[bodyA].P, vA.Lin, aA.Lin)
	return spatial.SpatialVec{Ang: xB.R.InverseApply(ang), Lin: lin}, nil
}

// BodyAngularAccelerationInBody returns the angular part only. Requires
// Acceleration stage.
func (sub *Subsystem) BodyAngularAccelerationInBody(s *State, bodyA, inBodyB BodyID) (spatial.Vec3, error) {
	a, err := sub.BodySpatialAccelerationInBody(s, bodyA, inBodyB)
	return a.Ang, err
}

// StationAcceleration returns the Ground-frame acceleration of a station
// fixed on body b, including the Euler and centripetal transport terms.
// Requires Acceleration stage.
func (sub *Subsystem) StationAcceleration(s *State, b BodyID, station spatial.Vec3) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "StationAcceleration", StageAcceleration, b); err != nil {
		return spatial.Vec3{}, err
	}
	return stationAccelerationInGround(s, b, station), nil
}

// MovingStationAcceleration superposes the point's local velocity and
// acceleration within body b, adding the Coriolis term for the local
// motion. Requires Acceleration stage.
func (sub *Subsystem) MovingStationAcceleration(s *State, b BodyID, station, stationVel, stationAcc spatial.Vec3) (spatial.Vec3, error) {
	a, err := sub.StationAcceleration(s, b, station)
	if err != nil {
		return spatial.Vec3{}, err
	}
	rot := s.cache.bodyTransform[b].R
	w := s.cache.bodyVelocity[b].Ang
	vLocG := rot.Apply(stationVel)
	return a.Add(w.Cross(vLocG).Scale(2)).Add(rot.Apply(stationAcc)), nil
}

// FixedStationAccelerationInBody returns the acceleration of a station
// fixed on body B observed from body A's moving frame, expressed in A.
// Requires Acceleration stage.
func (sub *Subsystem) FixedStationAccelerationInBody(s *State, onBodyB BodyID, station spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	return sub.MovingStationAccelerationInBody(s, onBodyB, station, spatial.Vec3{}, spatial.Vec3{}, inBodyA)
}

// MovingStationAccelerationInBody additionally superposes the point's
// local velocity and acceleration within body B. Requires Acceleration
// stage.
func (sub *Subsystem) MovingStationAccelerationInBody(s *State, onBodyB BodyID, station, stationVel, stationAcc spatial.Vec3, inBodyA BodyID) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "MovingStationAccelerationInBody", StageAcceleration, onBodyB, inBodyA); err != nil {
		return spatial.Vec3{}, err
	}
	xA := s.cache.bodyTransform[inBodyA]
	vA := s.cache.bodyVelocity[inBodyA]
	aA := s.cache.bodyAccel[inBodyA]

	rotB := s.cache.bodyTransform[onBodyB].R
	pG := s.cache.bodyTransform[onBodyB].Apply(station)
	vG := stationVelocityInGround(s, onBodyB, station).Add(rotB.Apply(stationVel))
	aG := stationAccelerationInGround(s, onBodyB, station).
		Add(s.cache.bodyVelocity[onBodyB].Ang.Cross(rotB.Apply(stationVel)).Scale(2)).
		Add(rotB.Apply(stationAcc))

	return relPointAccel(xA, vA, aA, pG, vG, aG), nil
}

func (sub *Subsystem) checkQuery(s *State, op string, st Stage, bodies ...BodyID) error {
	for _, b := range bodies {
		if err := sub.checkBody(op, b); err != nil {
			return err
		}
	}
	return s.require(op, st)
}

// relPointAccel is the acceleration of a point (ground position pG, ground
// velocity vG, ground acceleration aG) as observed in the moving frame
// with pose x, spatial velocity v, spatial acceleration a, expressed in
// that frame:
//
//	a_rel = R^T ( aG - a0 - alpha x r - 2 w x (vG - v0) + w x (w x r) )
//
// with r the offset from the frame origin to the point, in Ground.
func relPointAccel(x spatial.Transform, v, a spatial.SpatialVec, pG, vG, aG spatial.Vec3) spatial.Vec3 {
	r := pG.Sub(x.P)
	rdot := vG.Sub(v.Lin)
	rel := aG.Sub(a.Lin).
		Sub(a.Ang.Cross(r)).
		Sub(v.Ang.Cross(rdot).Scale(2)).
		Add(v.Ang.Cross(v.Ang.Cross(r)))
	return x.R.InverseApply(rel)
}
