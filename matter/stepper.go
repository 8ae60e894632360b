package matter

// Derivative supplies the generalized accelerations for a state realized
// to Velocity. It must not retain s.
type Derivative func(s *State) (Vector, error)

// Stepper advances a state's coordinates and speeds with the classical
// fourth-order Runge-Kutta scheme and re-projects the constraints after
// every step, so integration drift never accumulates in the constraint
// manifold. Scratch storage is reused across steps; a Stepper is not safe
// for concurrent use.
type Stepper struct {
	sub  *Subsystem
	opts ProjectOptions

	k1, k2, k3, k4 Vector
	ws             *State
}

func NewStepper(sub *Subsystem, opts ProjectOptions) *Stepper {
	return &Stepper{sub: sub, opts: opts}
}

// Step advances s by dt in place. The state must be realized to Velocity
// on entry and is left at Velocity with both projection passes applied.
func (st *Stepper) Step(s *State, deriv Derivative, dt float64) error {
	if err := s.require("Step", StageVelocity); err != nil {
		return err
	}
	nq := st.sub.tree.NumQ()
	nu := st.sub.tree.NumU()
	n := nq + nu
	if len(st.k1) != n {
		st.k1 = make(Vector, n)
		st.k2 = make(Vector, n)
		st.k3 = make(Vector, n)
		st.k4 = make(Vector, n)
	}
	if st.ws == nil {
		st.ws = s.Clone()
	}

	t := s.Time()
	q := s.q.Clone()
	u := s.u.Clone()

	if err := st.derive(s, deriv, st.k1); err != nil {
		return err
	}
	if err := st.eval(q, u, st.k1, t+dt/2, dt/2, deriv, st.k2); err != nil {
		return err
	}
	if err := st.eval(q, u, st.k2, t+dt/2, dt/2, deriv, st.k3); err != nil {
		return err
	}
	if err := st.eval(q, u, st.k3, t+dt, dt, deriv, st.k4); err != nil {
		return err
	}

	dt6 := dt / 6
	for i := 0; i < nq; i++ {
		s.q[i] = q[i] + dt6*(st.k1[i]+2*st.k2[i]+2*st.k3[i]+st.k4[i])
	}
	for i := 0; i < nu; i++ {
		s.u[i] = u[i] + dt6*(st.k1[nq+i]+2*st.k2[nq+i]+2*st.k3[nq+i]+st.k4[nq+i])
	}
	s.SetTime(t + dt)

	if err := st.sub.Realize(s, StagePosition); err != nil {
		return err
	}
	if _, err := st.sub.ProjectQConstraints(s, nil, st.opts); err != nil {
		return err
	}
	if err := st.sub.Realize(s, StageVelocity); err != nil {
		return err
	}
	if _, err := st.sub.ProjectUConstraints(s, nil, st.opts); err != nil {
		return err
	}
	return nil
}

// eval fills dst with the state derivative [u; udot] at the intermediate
// point q + h*k_q, u + h*k_u, using the scratch state.
func (st *Stepper) eval(q, u, k Vector, t, h float64, deriv Derivative, dst Vector) error {
	nq := len(q)
	for i := range q {
		st.ws.q[i] = q[i] + h*k[i]
	}
	for i := range u {
		st.ws.u[i] = u[i] + h*k[nq+i]
	}
	st.ws.t = t
	st.ws.Invalidate(StageTime)
	if err := st.sub.Realize(st.ws, StageVelocity); err != nil {
		return err
	}
	return st.derive(st.ws, deriv, dst)
}

// derive fills dst with [u; udot] for a state already at Velocity. The pin,
// slider, and weld mobilizers all have qdot = u, so the coordinate block is
// the speeds themselves.
func (st *Stepper) derive(s *State, deriv Derivative, dst Vector) error {
	nq := st.sub.tree.NumQ()
	copy(dst[:nq], s.u)
	udot, err := deriv(s)
	if err != nil {
		return err
	}
	if len(udot) != st.sub.tree.NumU() {
		return &DomainError{Op: "Step", Detail: "derivative returned wrong udot length"}
	}
	copy(dst[nq:], udot)
	return nil
}
