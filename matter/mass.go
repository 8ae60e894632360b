package matter

import "github.com/kinodyn/kinodyn/spatial"

// Mass-property queries. Per-body mass properties are Instance-stage data;
// anything cross-frame additionally needs Position (or higher, for mass
// center velocity and acceleration).

// BodyMassPropertiesInBody returns body A's mass properties (measured
// about A's origin) reexpressed in body B's axes. Same-body calls need
// only Instance stage; cross-body calls need Position.
func (sub *Subsystem) BodyMassPropertiesInBody(s *State, bodyA, inBodyB BodyID) (spatial.MassProperties, error) {
	if err := sub.checkBody("BodyMassPropertiesInBody", bodyA); err != nil {
		return spatial.MassProperties{}, err
	}
	if err := sub.checkBody("BodyMassPropertiesInBody", inBodyB); err != nil {
		return spatial.MassProperties{}, err
	}
	if err := s.require("BodyMassPropertiesInBody", StageInstance); err != nil {
		return spatial.MassProperties{}, err
	}
	mp := s.cache.massProps[bodyA]
	if bodyA == inBodyB {
		return mp, nil
	}
	if err := s.require("BodyMassPropertiesInBody", StagePosition); err != nil {
		return spatial.MassProperties{}, err
	}
	rBA := s.cache.bodyTransform[inBodyB].R.Inverse().
		Compose(s.cache.bodyTransform[bodyA].R)
	return mp.Reexpress(rBA), nil
}

// BodyCentralInertia returns body A's inertia about its own mass center,
// in A's frame. Requires Instance stage.
func (sub *Subsystem) BodyCentralInertia(s *State, bodyA BodyID) (spatial.Inertia, error) {
	if err := sub.checkBody("BodyCentralInertia", bodyA); err != nil {
		return spatial.Inertia{}, err
	}
	if err := s.require("BodyCentralInertia", StageInstance); err != nil {
		return spatial.Inertia{}, err
	}
	return s.cache.massProps[bodyA].CentralInertia(), nil
}

// BodyMassCenterLocation returns the Ground-frame location of body A's
// mass center. Requires Position stage.
func (sub *Subsystem) BodyMassCenterLocation(s *State, bodyA BodyID) (spatial.Vec3, error) {
	if err := sub.checkQuery(s, "BodyMassCenterLocation", StagePosition, bodyA); err != nil {
		return spatial.Vec3{}, err
	}
	if err := s.require("BodyMassCenterLocation", StageInstance); err != nil {
		return spatial.Vec3{}, err
	}
	return s.cache.bodyTransform[bodyA].Apply(s.cache.massProps[bodyA].COM), nil
}

// BodyMassCenterLocationInBody returns body A's mass center measured from
// a given point on body B, expressed in B. Requires Position stage.
func (sub *Subsystem) BodyMassCenterLocationInBody(s *State, bodyA, inBodyB BodyID, fromLocationOnB spatial.Vec3) (spatial.Vec3, error) {
	comG, err := sub.BodyMassCenterLocation(s, bodyA)
	if err != nil {
		return spatial.Vec3{}, err
	}
	if err := sub.checkBody("BodyMassCenterLocationInBody", inBodyB); err != nil {
		return spatial.Vec3{}, err
	}
	xB := s.cache.bodyTransform[inBodyB]
	return xB.R.InverseApply(comG.Sub(xB.Apply(fromLocationOnB))), nil
}

// SystemMassPropertiesInGround returns total mass, system mass center
// measured from the Ground origin, and system inertia about the Ground
// origin, all in Ground. Bodies are transported to the common frame and
// summed. Requires Position stage (and Instance for the mass data).
func (sub *Subsystem) SystemMassPropertiesInGround(s *State) (spatial.MassProperties, error) {
	if err := s.require("SystemMassPropertiesInGround", StagePosition); err != nil {
		return spatial.MassProperties{}, err
	}
	total := spatial.MassProperties{Inertia: spatial.PrincipalInertia(0, 0, 0)}
	for i := 1; i < sub.tree.NumBodies(); i++ {
		mp := s.cache.massProps[i].TransformedBy(s.cache.bodyTransform[i])
		total = spatial.Combine(total, mp)
	}
	return total, nil
}

// SystemCentralInertiaInGround is the system inertia about the system mass
// center, expressed in Ground. Requires Position stage.
func (sub *Subsystem) SystemCentralInertiaInGround(s *State) (spatial.Inertia, error) {
	mp, err := sub.SystemMassPropertiesInGround(s)
	if err != nil {
		return spatial.Inertia{}, err
	}
	return mp.CentralInertia(), nil
}

// SystemMassCenterLocationInGround requires Position stage.
func (sub *Subsystem) SystemMassCenterLocationInGround(s *State) (spatial.Vec3, error) {
	mp, err := sub.SystemMassPropertiesInGround(s)
	if err != nil {
		return spatial.Vec3{}, err
	}
	return mp.COM, nil
}

// SystemMassCenterVelocityInGround is the mass-weighted mean of the body
// mass-center velocities. Requires Velocity stage.
func (sub *Subsystem) SystemMassCenterVelocityInGround(s *State) (spatial.Vec3, error) {
	if err := s.require("SystemMassCenterVelocityInGround", StageVelocity); err != nil {
		return spatial.Vec3{}, err
	}
	return sub.systemComDerivative(s, stationVelocityInGround)
}

// SystemMassCenterAccelerationInGround requires Acceleration stage.
func (sub *Subsystem) SystemMassCenterAccelerationInGround(s *State) (spatial.Vec3, error) {
	if err := s.require("SystemMassCenterAccelerationInGround", StageAcceleration); err != nil {
		return spatial.Vec3{}, err
	}
	return sub.systemComDerivative(s, stationAccelerationInGround)
}

func (sub *Subsystem) systemComDerivative(s *State, f func(*State, BodyID, spatial.Vec3) spatial.Vec3) (spatial.Vec3, error) {
	sum := spatial.Vec3{}
	mass := 0.0
	for i := 1; i < sub.tree.NumBodies(); i++ {
		mp := s.cache.massProps[i]
		sum = sum.Add(f(s, BodyID(i), mp.COM).Scale(mp.Mass))
		mass += mp.Mass
	}
	if mass == 0 {
		return spatial.Vec3{}, nil
	}
	return sum.Scale(1 / mass), nil
}
