package matter

import (
	"fmt"

	"github.com/kinodyn/kinodyn/spatial"
)

// Force accumulators. ResetForces sizes and zeroes them; the AddIn
// operators let force elements accumulate into them between resets.

// ResetForces resizes the three accumulators to the shapes fixed by the
// tree (per-body spatial forces, per-particle forces, per-mobility scalar
// forces) and zeroes them. Callable at any stage.
func (sub *Subsystem) ResetForces(bodyForces *[]spatial.SpatialVec, particleForces *[]spatial.Vec3, mobilityForces *[]float64) {
	*bodyForces = resize(*bodyForces, sub.tree.NumBodies())
	*particleForces = resize(*particleForces, sub.tree.NumParticles())
	*mobilityForces = resize(*mobilityForces, sub.tree.NumU())
}

func resize[T any](v []T, n int) []T {
	if cap(v) < n {
		return make([]T, n)
	}
	v = v[:n]
	var zero T
	for i := range v {
		v[i] = zero
	}
	return v
}

// AddInStationForce accumulates a force applied at a station on body b.
// The station is given in b's frame, the force in Ground; the equivalent
// body torque is force crossed into the station offset. Requires Position
// stage.
func (sub *Subsystem) AddInStationForce(s *State, b BodyID, stationInB, forceInG spatial.Vec3, bodyForces []spatial.SpatialVec) error {
	if err := sub.checkQuery(s, "AddInStationForce", StagePosition, b); err != nil {
		return err
	}
	if len(bodyForces) != sub.tree.NumBodies() {
		return &DomainError{Op: "AddInStationForce", Detail: "body force accumulator not sized by ResetForces"}
	}
	r := s.cache.bodyTransform[b].R.Apply(stationInB)
	bodyForces[b].Ang = bodyForces[b].Ang.Add(r.Cross(forceInG))
	bodyForces[b].Lin = bodyForces[b].Lin.Add(forceInG)
	return nil
}

// AddInBodyTorque accumulates a Ground-frame torque on body b.
func (sub *Subsystem) AddInBodyTorque(s *State, b BodyID, torqueInG spatial.Vec3, bodyForces []spatial.SpatialVec) error {
	if err := sub.checkBody("AddInBodyTorque", b); err != nil {
		return err
	}
	if len(bodyForces) != sub.tree.NumBodies() {
		return &DomainError{Op: "AddInBodyTorque", Detail: "body force accumulator not sized by ResetForces"}
	}
	bodyForces[b].Ang = bodyForces[b].Ang.Add(torqueInG)
	return nil
}

// AddInMobilityForce accumulates a scalar force or torque on one of body
// b's mobilizer axes.
func (sub *Subsystem) AddInMobilityForce(s *State, b BodyID, axis int, f float64, mobilityForces []float64) error {
	i, err := sub.mobilityIndex("AddInMobilityForce", b, axis, false)
	if err != nil {
		return err
	}
	if len(mobilityForces) != sub.tree.NumU() {
		return &DomainError{Op: "AddInMobilityForce", Detail: fmt.Sprintf("mobility force accumulator has %d entries, tree has %d", len(mobilityForces), sub.tree.NumU())}
	}
	mobilityForces[i] += f
	return nil
}
