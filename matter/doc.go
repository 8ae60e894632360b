// Package matter is a staged kinematic query layer and constraint
// stabilization solver for articulated multibody systems: trees of rigid
// bodies connected by parametrized mobilizers.
//
// The pieces fit together like this:
//
//   - [Tree]: the immutable topology, rooted at [Ground], built once and
//     shared freely
//   - [State]: one trajectory's generalized coordinates q, speeds u,
//     accelerations udot, time, and the stage-gated kinematic cache
//   - [Subsystem]: binds a Tree to its per-stage realize hooks
//     ([Realizer]) and serves every query and solver
//
// # Stages
//
// Derived quantities are cached per [Stage], a total order from Topology
// through Acceleration. [Subsystem.Realize] advances a state stage by
// stage through the hooks; mutating q, u, or t drops the realized stage
// below Position, Velocity, or Time respectively. Reading above the
// realized stage fails with [ErrStageViolation]; nothing is ever
// recomputed implicitly, so a stale read after a manual edit cannot be
// masked.
//
// # Queries
//
// Cross-frame queries (relative transforms, station locations, velocities
// and accelerations observed from moving bodies, mass properties in
// arbitrary frames, point-to-point distances and their derivatives) are
// closed-form compositions over the cache and are always consistent with
// the current state.
//
// # Projection
//
// [Subsystem.ProjectQConstraints] and [Subsystem.ProjectUConstraints]
// pull a drifted state back onto the constraint manifold by a minimum
// weighted-norm correction, and strip the matching component from an
// integrator's error estimate so the correction is not misread as
// integration error. Convergence is reported through the residual norm,
// never through an error.
//
// # Concurrency
//
// Everything is synchronous and lock-free. A State is single-writer;
// clone it ([State.Clone]) for concurrent evaluation. Trees are immutable
// and safely shared.
package matter
