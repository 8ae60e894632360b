package matter

import "github.com/kinodyn/kinodyn/spatial"

// Point-to-point scalar distance and its time derivatives. Each combines
// the relative rigid-body motion of the two bodies with, in the moving
// variants, the local motion of each point within its own body. With
// p the separation vector in Ground, d = |p|:
//
//	ddot  = p . pdot / d
//	dddot = (pdot . pdot + p . pddot - ddot^2) / d
//
// A coincident point pair (d == 0) has no direction, so derivatives are
// reported as zero.

// PointToPointDistance requires Position stage.
func (sub *Subsystem) PointToPointDistance(s *State, bodyA BodyID, stationA spatial.Vec3, bodyB BodyID, stationB spatial.Vec3) (float64, error) {
	if err := sub.checkQuery(s, "PointToPointDistance", StagePosition, bodyA, bodyB); err != nil {
		return 0, err
	}
	p := sub.separation(s, bodyA, stationA, bodyB, stationB)
	return p.Norm(), nil
}

// FixedPointToPointDistanceDot is d/dt of the distance between stations
// fixed on their bodies. Requires Velocity stage.
func (sub *Subsystem) FixedPointToPointDistanceDot(s *State, bodyA BodyID, stationA spatial.Vec3, bodyB BodyID, stationB spatial.Vec3) (float64, error) {
	return sub.MovingPointToPointDistanceDot(s,
		bodyA, stationA, spatial.Vec3{},
		bodyB, stationB, spatial.Vec3{})
}

// MovingPointToPointDistanceDot accounts for each point's velocity within
// its own body (expressed in that body). Requires Velocity stage.
func (sub *Subsystem) MovingPointToPointDistanceDot(s *State, bodyA BodyID, stationA, velocityA spatial.Vec3, bodyB BodyID, stationB, velocityB spatial.Vec3) (float64, error) {
	if err := sub.checkQuery(s, "MovingPointToPointDistanceDot", StageVelocity, bodyA, bodyB); err != nil {
		return 0, err
	}
	p := sub.separation(s, bodyA, stationA, bodyB, stationB)
	d := p.Norm()
	if d == 0 {
		return 0, nil
	}
	pdot := sub.separationDot(s, bodyA, stationA, velocityA, bodyB, stationB, velocityB)
	return p.Dot(pdot) / d, nil
}

// FixedPointToPointDistanceDotDot is d^2/dt^2 of the distance between
// fixed stations. Requires Acceleration stage.
func (sub *Subsystem) FixedPointToPointDistanceDotDot(s *State, bodyA BodyID, stationA spatial.Vec3, bodyB BodyID, stationB spatial.Vec3) (float64, error) {
	return sub.MovingPointToPointDistanceDotDot(s,
		bodyA, stationA, spatial.Vec3{}, spatial.Vec3{},
		bodyB, stationB, spatial.Vec3{}, spatial.Vec3{})
}

// MovingPointToPointDistanceDotDot accounts for each point's local
// velocity and acceleration within its own body. Requires Acceleration
// stage.
func (sub *Subsystem) MovingPointToPointDistanceDotDot(s *State, bodyA BodyID, stationA, velocityA, accelerationA spatial.Vec3, bodyB BodyID, stationB, velocityB, accelerationB spatial.Vec3) (float64, error) {
	if err := sub.checkQuery(s, "MovingPointToPointDistanceDotDot", StageAcceleration, bodyA, bodyB); err != nil {
		return 0, err
	}
	p := sub.separation(s, bodyA, stationA, bodyB, stationB)
	d := p.Norm()
	if d == 0 {
		return 0, nil
	}
	pdot := sub.separationDot(s, bodyA, stationA, velocityA, bodyB, stationB, velocityB)

	aA := movingStationAccelG(s, bodyA, stationA, velocityA, accelerationA)
	aB := movingStationAccelG(s, bodyB, stationB, velocityB, accelerationB)
	pddot := aA.Sub(aB)

	ddot := p.Dot(pdot) / d
	return (pdot.Dot(pdot) + p.Dot(pddot) - ddot*ddot) / d, nil
}

func (sub *Subsystem) separation(s *State, bodyA BodyID, stationA spatial.Vec3, bodyB BodyID, stationB spatial.Vec3) spatial.Vec3 {
	pA := s.cache.bodyTransform[bodyA].Apply(stationA)
	pB := s.cache.bodyTransform[bodyB].Apply(stationB)
	return pA.Sub(pB)
}

func (sub *Subsystem) separationDot(s *State, bodyA BodyID, stationA, velocityA spatial.Vec3, bodyB BodyID, stationB, velocityB spatial.Vec3) spatial.Vec3 {
	vA := stationVelocityInGround(s, bodyA, stationA).
		Add(s.cache.bodyTransform[bodyA].R.Apply(velocityA))
	vB := stationVelocityInGround(s, bodyB, stationB).
		Add(s.cache.bodyTransform[bodyB].R.Apply(velocityB))
	return vA.Sub(vB)
}

func movingStationAccelG(s *State, b BodyID, station, velocity, acceleration spatial.Vec3) spatial.Vec3 {
	rot := s.cache.bodyTransform[b].R
	w := s.cache.bodyVelocity[b].Ang
	return stationAccelerationInGround(s, b, station).
		Add(w.Cross(rot.Apply(velocity)).Scale(2)).
		Add(rot.Apply(acceleration))
}
