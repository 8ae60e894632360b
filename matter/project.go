package matter

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// fdStep is the base relative step for finite-difference constraint
// Jacobians, used when the realizer has no analytic form.
const fdStep = 1e-6

// ProjectQConstraints adjusts q by the minimum weighted-norm correction
// that drives the weighted position-constraint residual at or below
// opts.Tol, iterating because the position problem is generally nonlinear.
// The same projection operator is applied to the leading q segment of the
// caller's yErr (an integrator error estimate, laid out [q; u; ...]) so
// the projection's discontinuity is not mistaken for integration error.
//
// The state must be realized to Position. A residual already at or below
// opts.TargetTol returns false with nothing touched. If the iteration cap
// is reached the best iterate is kept and the shortfall is observable only
// through QErrNorm afterward; it is never reported as an error. On return
// the realized stage is Position exactly when anything moved.
//
// The return value is true iff the state or yErr was modified at all,
// independent of whether Tol was reached.
func (sub *Subsystem) ProjectQConstraints(s *State, yErr Vector, opts ProjectOptions) (bool, error) {
	if err := opts.validate("ProjectQConstraints"); err != nil {
		return false, err
	}
	if err := s.require("ProjectQConstraints", StagePosition); err != nil {
		return false, err
	}
	nq := sub.tree.NumQ()
	if err := checkYErr("ProjectQConstraints", yErr, nq+sub.tree.NumU()); err != nil {
		return false, err
	}
	m := len(s.cache.qErr)
	if m == 0 || nq == 0 {
		return false, nil
	}

	norm := s.cache.qErr.WeightedNorm(s.cache.qErrW)
	if norm <= opts.TargetTol {
		return false, nil
	}

	changed := false
	best := s.q.Clone()
	bestNorm := norm
	G := mat.NewDense(m, nq, nil)

	for it := 0; it < opts.MaxIterations; it++ {
		if err := sub.positionJacobian(s, G); err != nil {
			return changed, err
		}
		lambda, err := solveWeightedNormal(G, opts.QWeights, s.cache.qErr)
		if err != nil {
			return changed, err
		}
		applyCorrection(s.q, G, opts.QWeights, lambda)
		changed = true

		s.Invalidate(StagePosition)
		if err := sub.Realize(s, StagePosition); err != nil {
			return changed, err
		}
		norm = s.cache.qErr.WeightedNorm(s.cache.qErrW)
		if opts.Logger != nil {
			opts.Logger.Debug("position projection", "iteration", it, "residual", norm)
		}
		if norm < bestNorm {
			bestNorm = norm
			copy(best, s.q)
		}
		if norm <= opts.Tol {
			break
		}
	}

	// Cap reached with the last iterate worse than an earlier one: keep
	// the best and leave the residual to tell the story.
	if norm > bestNorm {
		copy(s.q, best)
		s.Invalidate(StagePosition)
		if err := sub.Realize(s, StagePosition); err != nil {
			return changed, err
		}
	}

	if yErr != nil {
		stripped, err := stripProjection(G, opts.QWeights, yErr[:nq])
		if err != nil {
			return changed, err
		}
		changed = changed || stripped
	}
	return changed, nil
}

// ProjectUConstraints is the velocity-level projection. The velocity
// constraints are linear in u, so a single correction suffices; the u
// segment of yErr (layout [q; u; ...]) is stripped with the same operator.
// The state must be realized to Velocity and is left there when modified.
func (sub *Subsystem) ProjectUConstraints(s *State, yErr Vector, opts ProjectOptions) (bool, error) {
	if err := opts.validate("ProjectUConstraints"); err != nil {
		return false, err
	}
	if err := s.require("ProjectUConstraints", StageVelocity); err != nil {
		return false, err
	}
	nq, nu := sub.tree.NumQ(), sub.tree.NumU()
	if err := checkYErr("ProjectUConstraints", yErr, nq+nu); err != nil {
		return false, err
	}
	m := len(s.cache.uErr)
	if m == 0 || nu == 0 {
		return false, nil
	}

	norm := s.cache.uErr.WeightedNorm(s.cache.uErrW)
	if norm <= opts.TargetTol {
		return false, nil
	}

	G := mat.NewDense(m, nu, nil)
	if err := sub.velocityJacobian(s, G); err != nil {
		return false, err
	}
	lambda, err := solveWeightedNormal(G, opts.UWeights, s.cache.uErr)
	if err != nil {
		return false, err
	}
	applyCorrection(s.u, G, opts.UWeights, lambda)

	s.Invalidate(StageVelocity)
	if err := sub.Realize(s, StageVelocity); err != nil {
		return true, err
	}
	if opts.Logger != nil {
		opts.Logger.Debug("velocity projection",
			"residual", s.cache.uErr.WeightedNorm(s.cache.uErrW))
	}

	if yErr != nil {
		if _, err := stripProjection(G, opts.UWeights, yErr[nq:nq+nu]); err != nil {
			return true, err
		}
	}
	return true, nil
}

func checkYErr(op string, yErr Vector, want int) error {
	if yErr != nil && len(yErr) < want {
		return &DomainError{Op: op, Detail: fmt.Sprintf("yErr has %d entries, need at least %d ([q; u] layout)", len(yErr), want)}
	}
	return nil
}

// positionJacobian fills dst with dqerr/dq, analytically when the realizer
// can, otherwise by central differences through the position hook on a
// scratch clone.
func (sub *Subsystem) positionJacobian(s *State, dst *mat.Dense) error {
	if sub.qJac != nil && sub.qJac.QJacobian(s, dst) {
		return nil
	}
	return sub.fdJacobian(s, dst, StagePosition)
}

func (sub *Subsystem) velocityJacobian(s *State, dst *mat.Dense) error {
	if sub.uJac != nil && sub.uJac.UJacobian(s, dst) {
		return nil
	}
	return sub.fdJacobian(s, dst, StageVelocity)
}

func (sub *Subsystem) fdJacobian(s *State, dst *mat.Dense, stage Stage) error {
	m, n := dst.Dims()
	ws := s.Clone()
	vec := ws.q
	errVec := func() Vector { return ws.cache.qErr }
	if stage == StageVelocity {
		vec = ws.u
		errVec = func() Vector { return ws.cache.uErr }
	}

	plus := make(Vector, m)
	for j := 0; j < n; j++ {
		orig := vec[j]
		h := fdStep * math.Max(1, math.Abs(orig))

		vec[j] = orig + h
		ws.Invalidate(stage)
		if err := sub.Realize(ws, stage); err != nil {
			return err
		}
		copy(plus, errVec())

		vec[j] = orig - h
		ws.Invalidate(stage)
		if err := sub.Realize(ws, stage); err != nil {
			return err
		}
		minus := errVec()

		vec[j] = orig
		for i := 0; i < m; i++ {
			dst.Set(i, j, (plus[i]-minus[i])/(2*h))
		}
	}
	return nil
}

// solveWeightedNormal solves (G W^-1 G^T) lambda = rhs, with W the
// diagonal state-space weights (nil for identity). Cholesky first, LU as
// the fallback for marginal conditioning.
func solveWeightedNormal(G *mat.Dense, w Vector, rhs Vector) (Vector, error) {
	m, n := G.Dims()
	a := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for k := i; k < m; k++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				wj := 1.0
				if j < len(w) {
					wj = w[j]
				}
				sum += G.At(i, j) * G.At(k, j) / wj
			}
			a.SetSym(i, k, sum)
		}
	}

	b := mat.NewVecDense(m, rhs.Clone())
	x := mat.NewVecDense(m, nil)

	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(x, b); err == nil {
			return Vector(x.RawVector().Data), nil
		}
	}
	var lu mat.LU
	lu.Factorize(a)
	if err := lu.SolveVecTo(x, false, b); err != nil {
		return nil, fmt.Errorf("matter: constraint normal equations singular: %w", err)
	}
	return Vector(x.RawVector().Data), nil
}

// applyCorrection applies v -= W^-1 G^T lambda in place.
func applyCorrection(v Vector, G *mat.Dense, w Vector, lambda Vector) {
	m, n := G.Dims()
	for j := 0; j < n; j++ {
		sum := 0.0
		for i := 0; i < m; i++ {
			sum += G.At(i, j) * lambda[i]
		}
		wj := 1.0
		if j < len(w) {
			wj = w[j]
		}
		v[j] -= sum / wj
	}
}

// stripProjection removes from y its component along the constrained
// directions: y -= W^-1 G^T (G W^-1 G^T)^-1 G y. Reports whether y moved.
func stripProjection(G *mat.Dense, w Vector, y Vector) (bool, error) {
	m, n := G.Dims()
	gy := make(Vector, m)
	nonzero := false
	for i := 0; i < m; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += G.At(i, j) * y[j]
		}
		gy[i] = sum
		nonzero = nonzero || sum != 0
	}
	if !nonzero {
		return false, nil
	}
	mu, err := solveWeightedNormal(G, w, gy)
	if err != nil {
		return false, err
	}
	applyCorrection(y, G, w, mu)
	return true, nil
}
