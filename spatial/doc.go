// Package spatial provides the rigid-transform, spatial-vector, and
// spatial-inertia algebra shared by the multibody kinematics layer.
//
// Everything here is pure value math with no simulation state:
//
//   - [Transform]: rigid transform stored as (orthonormal rotation,
//     translation), composed and inverted exactly
//   - [SpatialVec]: paired angular/linear 6-component quantity with the
//     rigid-offset transport formulas for velocity and acceleration
//   - [Inertia], [MassProperties]: reexpression, parallel-axis shifts,
//     and summation of disjoint bodies in a common frame
//
// # Orthonormality
//
// Repeated rotation composition accumulates roundoff. [Rotation.Drift]
// measures the departure from orthonormality and [OrthoDriftTol] is the
// documented bound; callers that store long composition chains should
// re-orthonormalize with [Rotation.Reorthonormalized] once drift exceeds
// it.
package spatial
