package matter

import (
	"context"
	"math"
	"testing"

	"github.com/kinodyn/kinodyn/spatial"
)

func TestStepper_FreePendulum(t *testing.T) {
	// Undamped pendulum udot = -sin(q) (unit gravity, length, mass). Small
	// oscillations stay near q(t) = q0*cos(t).
	tree, err := NewTree([]Body{
		GroundBody(),
		{Parent: Ground, Mobilizer: Pin{}, Mass: spatial.MassProperties{Mass: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := NewSubsystem(tree, NewTreeKinematics(tree))
	if err != nil {
		t.Fatal(err)
	}

	const q0 = 0.01
	s := NewState(tree)
	if err := s.SetQ(0, q0); err != nil {
		t.Fatal(err)
	}
	if err := sub.Realize(s, StageVelocity); err != nil {
		t.Fatal(err)
	}

	deriv := func(s *State) (Vector, error) {
		return Vector{-math.Sin(s.q[0])}, nil
	}

	st := NewStepper(sub, DefaultProjectOptions())
	const dt, steps = 0.01, 100
	for i := 0; i < steps; i++ {
		if err := st.Step(s, deriv, dt); err != nil {
			t.Fatal(err)
		}
	}

	elapsed := float64(steps) * dt
	if math.Abs(s.Time()-elapsed) > 1e-12 {
		t.Errorf("time = %g, want %g", s.Time(), elapsed)
	}
	want := q0 * math.Cos(elapsed)
	if got := s.Q()[0]; math.Abs(got-want) > 1e-5 {
		t.Errorf("q(%g) = %g, want %g", elapsed, got, want)
	}
	if s.Stage() != StageVelocity {
		t.Errorf("stage after step = %s", s.Stage())
	}
}

func TestStepper_HoldsConstraint(t *testing.T) {
	// Integrate the rod-closed chain with an arbitrary smooth forcing; the
	// post-step projection must hold the loop closure at tolerance.
	sub, s := projectionChain(t)
	if err := sub.Realize(s, StageVelocity); err != nil {
		t.Fatal(err)
	}

	deriv := func(s *State) (Vector, error) {
		return Vector{0.5 * math.Cos(s.Time()), -0.2}, nil
	}

	opts := DefaultProjectOptions()
	st := NewStepper(sub, opts)
	for i := 0; i < 50; i++ {
		if err := st.Step(s, deriv, 0.02); err != nil {
			t.Fatal(err)
		}
		norm, err := sub.QErrNorm(s)
		if err != nil {
			t.Fatal(err)
		}
		if norm > opts.Tol {
			t.Fatalf("step %d left position residual %g", i, norm)
		}
	}
}

// projectionChain mirrors the rod-closed chain used by the projection
// specs, in plain-test form.
func projectionChain(t *testing.T) (*Subsystem, *State) {
	t.Helper()
	tree, err := NewTree([]Body{
		GroundBody(),
		{Parent: Ground, Mobilizer: Pin{}, Mass: spatial.MassProperties{Mass: 1}},
		{
			Parent:        1,
			Mobilizer:     Pin{},
			FrameInParent: spatial.Translation(spatial.Vec3{X: 1}),
			Mass:          spatial.MassProperties{Mass: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	rod := &Rod{
		BodyA:    Ground,
		StationA: spatial.Vec3{X: 2.5},
		BodyB:    2,
		StationB: spatial.Vec3{X: 1},
		Length:   0.5,
	}
	sub, err := NewSubsystem(tree, NewTreeKinematics(tree, rod))
	if err != nil {
		t.Fatal(err)
	}
	return sub, NewState(tree)
}

func TestEnsembleRunsAreIndependent(t *testing.T) {
	sub, s := pendulumFixture(t, 0, 0)

	const runs = 16
	got := make([]float64, runs)
	e := NewEnsemble(sub, runs)
	err := e.Run(context.Background(), s, func(run int, s *State) error {
		if err := s.SetQ(0, float64(run)*0.1); err != nil {
			return err
		}
		if err := sub.Realize(s, StagePosition); err != nil {
			return err
		}
		x, err := sub.BodyTransform(s, 1)
		if err != nil {
			return err
		}
		got[run] = math.Atan2(x.R.Mat().M10, x.R.Mat().M00)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for run, angle := range got {
		if want := float64(run) * 0.1; math.Abs(angle-want) > 1e-12 {
			t.Errorf("run %d saw angle %g, want %g", run, angle, want)
		}
	}
	// The base state never moves.
	if s.Q()[0] != 0 {
		t.Error("a run mutated the base state")
	}
}

func TestEnsembleCanceledContext(t *testing.T) {
	sub, s := pendulumFixture(t, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnsemble(sub, 4)
	err := e.Run(ctx, s, func(int, *State) error { return nil })
	if err == nil {
		t.Fatal("expected context error")
	}
}
