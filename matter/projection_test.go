package matter

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kinodyn/kinodyn/spatial"
)

// lockedPendulum is a one-pin body whose coordinate is pinned by a
// CoordinateLock, exercising the analytic Jacobian path.
func lockedPendulum(target float64) (*Subsystem, *State) {
	tree, err := NewTree([]Body{
		GroundBody(),
		{Parent: Ground, Mobilizer: Pin{}, Mass: spatial.MassProperties{Mass: 1}},
	})
	Expect(err).NotTo(HaveOccurred())
	lock := &CoordinateLock{QIndex: 0, UIndex: 0, Target: target}
	sub, err := NewSubsystem(tree, NewTreeKinematics(tree, lock))
	Expect(err).NotTo(HaveOccurred())
	return sub, NewState(tree)
}

// rodChain is a two-pin chain closed by a Rod from a ground anchor to the
// tip of body 2. Rod supplies no analytic rows, so the projector must fall
// back to finite differences.
func rodChain() (*Subsystem, *State) {
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
	Expect(err).NotTo(HaveOccurred())
	rod := &Rod{
		BodyA:    Ground,
		StationA: spatial.Vec3{X: 2.5},
		BodyB:    2,
		StationB: spatial.Vec3{X: 1},
		Length:   0.5,
	}
	sub, err := NewSubsystem(tree, NewTreeKinematics(tree, rod))
	Expect(err).NotTo(HaveOccurred())
	return sub, NewState(tree)
}

var _ = Describe("position projection", func() {
	var opts ProjectOptions

	BeforeEach(func() {
		opts = DefaultProjectOptions()
	})

	It("drives a locked coordinate back to its target analytically", func() {
		sub, s := lockedPendulum(0.25)
		Expect(s.SetQ(0, 0.4)).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		changed, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())

		norm, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(norm).To(BeNumerically("<=", opts.Tol))
		Expect(s.Q()[0]).To(BeNumerically("~", 0.25, 1e-9))
		Expect(s.Stage()).To(Equal(StagePosition))
	})

	It("converges through the finite-difference Jacobian for a rod", func() {
		sub, s := rodChain()
		Expect(s.SetQVector(Vector{0.12, -0.07})).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		before, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(before).To(BeNumerically(">", opts.Tol))

		changed, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())

		after, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(BeNumerically("<=", opts.Tol))
	})

	It("leaves an already-converged state untouched", func() {
		sub, s := lockedPendulum(0.25)
		Expect(s.SetQ(0, 0.25)).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		qBefore := s.Q()
		changed, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(s.Q()).To(Equal(qBefore))
	})

	It("is idempotent across repeated calls", func() {
		sub, s := rodChain()
		Expect(s.SetQVector(Vector{0.12, -0.07})).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		// With target_tol raised to tol, a converged state is final.
		opts.TargetTol = opts.Tol
		_, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred())
		first, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())

		changed, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse(), "a residual under target_tol must not be disturbed")
		second, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("strips the projected component from the q segment of yErr", func() {
		sub, s := lockedPendulum(0)
		Expect(s.SetQ(0, 0.3)).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		// [q; u] layout. The lock constrains the single coordinate, so its
		// whole error-estimate entry lies along the constrained direction.
		yErr := Vector{0.02, 0.5}
		changed, err := sub.ProjectQConstraints(s, yErr, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(yErr[0]).To(BeNumerically("~", 0, 1e-12))
		Expect(yErr[1]).To(Equal(0.5), "the u segment is not touched by position projection")
	})

	It("keeps the best iterate when the cap cuts the iteration short", func() {
		sub, s := rodChain()
		Expect(s.SetQVector(Vector{0.4, -0.3})).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		before, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())

		opts.MaxIterations = 1
		opts.Tol = 1e-15
		opts.TargetTol = 1e-15
		changed, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).NotTo(HaveOccurred(), "hitting the cap is not an error")
		Expect(changed).To(BeTrue())

		after, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(BeNumerically("<", before), "one Newton step must still improve the residual")
	})

	It("rejects a state below Position stage", func() {
		sub, s := lockedPendulum(0)
		_, err := sub.ProjectQConstraints(s, nil, opts)
		Expect(err).To(MatchError(ErrStageViolation))
	})

	It("rejects an undersized yErr", func() {
		sub, s := lockedPendulum(0)
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		_, err := sub.ProjectQConstraints(s, Vector{1}, opts)
		Expect(err).To(MatchError(ErrDomain))
	})

	It("rejects malformed options", func() {
		sub, s := lockedPendulum(0)
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		bad := opts
		bad.MaxIterations = 0
		_, err := sub.ProjectQConstraints(s, nil, bad)
		Expect(err).To(MatchError(ErrDomain))

		bad = opts
		bad.TargetTol = bad.Tol * 10
		_, err = sub.ProjectQConstraints(s, nil, bad)
		Expect(err).To(MatchError(ErrDomain))
	})

	It("respects error weights when measuring the residual", func() {
		sub, s := lockedPendulum(0)
		Expect(s.SetQ(0, 0.1)).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		Expect(s.SetQErrWeights(Vector{100})).To(Succeed())

		// sqrt(w e^2) with w = 100, e = 0.1.
		norm, err := sub.QErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(norm).To(BeNumerically("~", 1.0, 1e-9))
	})
})

var _ = Describe("velocity projection", func() {
	It("removes a locked coordinate's speed in a single pass", func() {
		sub, s := lockedPendulum(0)
		Expect(s.SetU(0, 1.5)).To(Succeed())
		Expect(sub.Realize(s, StageVelocity)).To(Succeed())

		opts := DefaultProjectOptions()
		yErr := Vector{0.1, 0.3}
		changed, err := sub.ProjectUConstraints(s, yErr, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())

		Expect(s.U()[0]).To(BeNumerically("~", 0, 1e-12))
		norm, err := sub.UErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(norm).To(BeNumerically("<=", opts.Tol))
		Expect(s.Stage()).To(Equal(StageVelocity))

		Expect(yErr[0]).To(Equal(0.1), "the q segment is not touched by velocity projection")
		Expect(yErr[1]).To(BeNumerically("~", 0, 1e-12))
	})

	It("satisfies the rod's velocity constraint after projection", func() {
		sub, s := rodChain()
		// A consistent position with an inconsistent speed.
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		_, err := sub.ProjectQConstraints(s, nil, DefaultProjectOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SetUVector(Vector{1.0, -0.5})).To(Succeed())
		Expect(sub.Realize(s, StageVelocity)).To(Succeed())

		changed, err := sub.ProjectUConstraints(s, nil, DefaultProjectOptions())
		Expect(err).NotTo(HaveOccurred())

		norm, err := sub.UErrNorm(s)
		Expect(err).NotTo(HaveOccurred())
		if changed {
			Expect(norm).To(BeNumerically("<=", DefaultProjectTol))
		} else {
			Expect(norm).To(BeNumerically("<=", DefaultProjectTarget))
		}
	})

	It("rejects a state below Velocity stage", func() {
		sub, s := lockedPendulum(0)
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		_, err := sub.ProjectUConstraints(s, nil, DefaultProjectOptions())
		Expect(err).To(MatchError(ErrStageViolation))
	})
})

var _ = Describe("constraint evaluation", func() {
	It("reports the rod's position error as distance minus length", func() {
		sub, s := rodChain()
		Expect(sub.Realize(s, StagePosition)).To(Succeed())

		// At q = 0 the tip sits at (2,0,0), anchor at (2.5,0,0): satisfied.
		qerr, err := sub.QErr(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(qerr).To(HaveLen(1))
		Expect(qerr[0]).To(BeNumerically("~", 0, 1e-12))

		Expect(s.SetQ(0, 0.2)).To(Succeed())
		Expect(sub.Realize(s, StagePosition)).To(Succeed())
		qerr, err = sub.QErr(s)
		Expect(err).NotTo(HaveOccurred())

		tip, err := sub.StationLocation(s, 2, spatial.Vec3{X: 1})
		Expect(err).NotTo(HaveOccurred())
		want := tip.Sub(spatial.Vec3{X: 2.5}).Norm() - 0.5
		Expect(qerr[0]).To(BeNumerically("~", want, 1e-12))
	})

	It("matches the rod's velocity error against a finite difference", func() {
		const h = 1e-6
		q := Vector{0.3, -0.5}
		u := Vector{0.9, 0.4}

		errAt := func(dt float64) float64 {
			sub, s := rodChain()
			Expect(s.SetQVector(Vector{q[0] + u[0]*dt, q[1] + u[1]*dt})).To(Succeed())
			Expect(sub.Realize(s, StagePosition)).To(Succeed())
			e, err := sub.QErr(s)
			Expect(err).NotTo(HaveOccurred())
			return e[0]
		}

		sub, s := rodChain()
		Expect(s.SetQVector(q)).To(Succeed())
		Expect(s.SetUVector(u)).To(Succeed())
		Expect(sub.Realize(s, StageVelocity)).To(Succeed())
		uerr, err := sub.UErr(s)
		Expect(err).NotTo(HaveOccurred())

		fd := (errAt(h) - errAt(-h)) / (2 * h)
		Expect(math.Abs(uerr[0] - fd)).To(BeNumerically("<", 1e-6))
	})
})
