package spatial

// SpatialVec pairs an angular and a linear 3-vector. It is used for body
// spatial velocities {w, v}, accelerations {alpha, a}, and forces
// {torque, force}, with both parts expressed in the same frame.
type SpatialVec struct {
	Ang Vec3
	Lin Vec3
}

func (s SpatialVec) Add(t SpatialVec) SpatialVec {
	return SpatialVec{s.Ang.Add(t.Ang), s.Lin.Add(t.Lin)}
}

func (s SpatialVec) Sub(t SpatialVec) SpatialVec {
	return SpatialVec{s.Ang.Sub(t.Ang), s.Lin.Sub(t.Lin)}
}

func (s SpatialVec) Scale(f float64) SpatialVec {
	return SpatialVec{s.Ang.Scale(f), s.Lin.Scale(f)}
}

func (s SpatialVec) IsZero() bool {
	return s.Ang == Vec3{} && s.Lin == Vec3{}
}

// ShiftVelocity transports a spatial velocity measured at one point of a
// rigid body to another point offset by r (same expression frame):
// v2 = v1 + w x r. The angular part is unchanged.
func (s SpatialVec) ShiftVelocity(r Vec3) SpatialVec {
	return SpatialVec{
		Ang: s.Ang,
		Lin: s.Lin.Add(s.Ang.Cross(r)),
	}
}

// ShiftAcceleration transports a spatial acceleration across a rigid offset
// r given the body's angular velocity w. The linear part picks up the Euler
// term alpha x r and the centripetal term w x (w x r).
func (s SpatialVec) ShiftAcceleration(w, r Vec3) SpatialVec {
	return SpatialVec{
		Ang: s.Ang,
		Lin: s.Lin.Add(s.Ang.Cross(r)).Add(w.Cross(w.Cross(r))),
	}
}
