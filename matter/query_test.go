package matter

import (
	"math"
	"testing"

	"github.com/kinodyn/kinodyn/spatial"
)

func vecClose(t *testing.T, name string, got, want spatial.Vec3, tol float64) {
	t.Helper()
	if d := got.Sub(want).Norm(); d > tol {
		t.Errorf("%s = %v, want %v (off by %g)", name, got, want, d)
	}
}

// pendulumFixture is a single pin body rotating about Ground's z axis, with
// the body origin at the pivot.
func pendulumFixture(t *testing.T, q, u float64) (*Subsystem, *State) {
	t.Helper()
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
	s := NewState(tree)
	if err := s.SetQ(0, q); err != nil {
		t.Fatal(err)
	}
	if err := s.SetU(0, u); err != nil {
		t.Fatal(err)
	}
	if err := sub.Realize(s, StageAcceleration); err != nil {
		t.Fatal(err)
	}
	return sub, s
}

// chainFixture is a two-pin planar chain: body 1 pivots at Ground's origin,
// body 2 pivots one unit out along body 1's x axis.
func chainFixture(t *testing.T, q, u []float64) (*Subsystem, *State) {
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
	sub, err := NewSubsystem(tree, NewTreeKinematics(tree))
	if err != nil {
		t.Fatal(err)
	}
	s := NewState(tree)
	if err := s.SetQVector(q); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUVector(u); err != nil {
		t.Fatal(err)
	}
	if err := sub.Realize(s, StageAcceleration); err != nil {
		t.Fatal(err)
	}
	return sub, s
}

func TestChainForwardKinematics(t *testing.T) {
	sub, s := chainFixture(t, Vector{math.Pi / 2, -math.Pi / 2}, Vector{0, 0})

	x1, err := sub.BodyTransform(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "body 1 origin", x1.P, spatial.Vec3{}, 1e-12)

	x2, err := sub.BodyTransform(s, 2)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "body 2 origin", x2.P, spatial.Vec3{Y: 1}, 1e-12)
	// The two pin angles cancel; body 2 is back in Ground's orientation.
	if d := x2.R.Mat().Sub(spatial.IdentityMat3()).MaxAbs(); d > 1e-12 {
		t.Errorf("body 2 rotation differs from identity by %g", d)
	}
}

func TestBodyTransformInBody(t *testing.T) {
	sub, s := chainFixture(t, Vector{math.Pi / 2, -math.Pi / 2}, Vector{0, 0})

	x21, err := sub.BodyTransformInBody(s, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "X_12 translation", x21.P, spatial.Vec3{X: 1}, 1e-12)

	// Round trip: X_12 * X_21 is identity.
	x12, err := sub.BodyTransformInBody(s, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	id := x21.Compose(x12)
	vecClose(t, "round-trip translation", id.P, spatial.Vec3{}, 1e-12)
	if d := id.R.Mat().Sub(spatial.IdentityMat3()).MaxAbs(); d > 1e-12 {
		t.Errorf("round-trip rotation differs from identity by %g", d)
	}
}

func TestStationLocationRoundTrip(t *testing.T) {
	sub, s := chainFixture(t, Vector{0.3, 0.8}, Vector{0, 0})

	st := spatial.Vec3{X: 0.2, Y: -0.5, Z: 0.1}
	// A station on body 2 reexpressed in body 2's own frame is itself.
	back, err := sub.StationLocationInBody(s, 2, st, 2)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "own-frame round trip", back, st, 1e-12)

	// Ground location agrees with reexpressing into Ground's frame.
	pG, err := sub.StationLocation(s, 2, st)
	if err != nil {
		t.Fatal(err)
	}
	pG2, err := sub.StationLocationInBody(s, 2, st, Ground)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "station in ground", pG2, pG, 1e-12)
}

func TestPendulumStationVelocity(t *testing.T) {
	const theta, omega, length = 0.7, 2.5, 1.5
	sub, s := pendulumFixture(t, theta, omega)

	tip := spatial.Vec3{X: length}
	got, err := sub.StationVelocity(s, 1, tip)
	if err != nil {
		t.Fatal(err)
	}
	// v = w x r with r = RotZ(theta)*(L,0,0).
	want := spatial.Vec3{
		X: -omega * length * math.Sin(theta),
		Y: omega * length * math.Cos(theta),
	}
	vecClose(t, "tip velocity", got, want, 1e-9)

	// A point moving outward along the rod picks up the reexpressed local
	// velocity on top of the transport term.
	const vloc = 0.4
	moving, err := sub.MovingStationVelocity(s, 1, tip, spatial.Vec3{X: vloc})
	if err != nil {
		t.Fatal(err)
	}
	want = want.Add(spatial.RotZ(theta).Apply(spatial.Vec3{X: vloc}))
	vecClose(t, "moving tip velocity", moving, want, 1e-9)
}

func TestPendulumCentripetalAcceleration(t *testing.T) {
	const theta, omega, length = 0.3, 3.0, 2.0
	sub, s := pendulumFixture(t, theta, omega)

	tip := spatial.Vec3{X: length}
	got, err := sub.StationAcceleration(s, 1, tip)
	if err != nil {
		t.Fatal(err)
	}
	// Constant rate, zero udot: pure centripetal, a = -w^2 r.
	rG := spatial.RotZ(theta).Apply(tip)
	vecClose(t, "tip acceleration", got, rG.Scale(-omega*omega), 1e-9)
}

func TestRigidPairHasNoRelativeMotion(t *testing.T) {
	// u[1] = 0 welds body 2 to body 1 instantaneously; everything body 2
	// does, observed from body 1, must vanish.
	sub, s := chainFixture(t, Vector{0.9, -0.4}, Vector{1.7, 0})

	v, err := sub.BodySpatialVelocityInBody(s, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "relative angular velocity", v.Ang, spatial.Vec3{}, 1e-9)
	vecClose(t, "relative origin velocity", v.Lin, spatial.Vec3{}, 1e-9)

	st := spatial.Vec3{X: 0.3, Y: 0.2}
	sv, err := sub.FixedStationVelocityInBody(s, 2, st, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "relative station velocity", sv, spatial.Vec3{}, 1e-9)

	a, err := sub.BodySpatialAccelerationInBody(s, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "relative angular acceleration", a.Ang, spatial.Vec3{}, 1e-9)
	vecClose(t, "relative origin acceleration", a.Lin, spatial.Vec3{}, 1e-9)

	sa, err := sub.FixedStationAccelerationInBody(s, 2, st, 1)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "relative station acceleration", sa, spatial.Vec3{}, 1e-9)
}

func TestObservedFromGroundMatchesCache(t *testing.T) {
	sub, s := chainFixture(t, Vector{0.5, 1.1}, Vector{0.8, -0.6})

	v, err := sub.BodySpatialVelocityInBody(s, 2, Ground)
	if err != nil {
		t.Fatal(err)
	}
	cached, err := sub.BodyVelocity(s, 2)
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "angular velocity vs cache", v.Ang, cached.Ang, 1e-12)
	vecClose(t, "origin velocity vs cache", v.Lin, cached.Lin, 1e-12)
}

func TestDistanceDerivativesVsFiniteDifference(t *testing.T) {
	const h = 1e-6
	stA := spatial.Vec3{X: 0.4}          // on body 1
	stB := spatial.Vec3{X: -0.3, Y: 0.6} // on body 2
	q := Vector{0.7, -1.2}
	u := Vector{1.3, 0.5}

	distAt := func(qShift Vector) float64 {
		sub, s := chainFixture(t, qShift, u)
		d, err := sub.PointToPointDistance(s, 1, stA, 2, stB)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	ddotAt := func(qShift Vector) float64 {
		sub, s := chainFixture(t, qShift, u)
		dd, err := sub.FixedPointToPointDistanceDot(s, 1, stA, 2, stB)
		if err != nil {
			t.Fatal(err)
		}
		return dd
	}
	step := func(dt float64) Vector {
		return Vector{q[0] + u[0]*dt, q[1] + u[1]*dt}
	}

	sub, s := chainFixture(t, q, u)
	ddot, err := sub.FixedPointToPointDistanceDot(s, 1, stA, 2, stB)
	if err != nil {
		t.Fatal(err)
	}
	fd := (distAt(step(h)) - distAt(step(-h))) / (2 * h)
	if math.Abs(ddot-fd) > 1e-6 {
		t.Errorf("ddot = %g, finite difference = %g", ddot, fd)
	}

	// With udot = 0 the speeds are constant along the trajectory, so the
	// same central difference applies to ddot itself.
	dddot, err := sub.FixedPointToPointDistanceDotDot(s, 1, stA, 2, stB)
	if err != nil {
		t.Fatal(err)
	}
	fd2 := (ddotAt(step(h)) - ddotAt(step(-h))) / (2 * h)
	if math.Abs(dddot-fd2) > 1e-5 {
		t.Errorf("dddot = %g, finite difference = %g", dddot, fd2)
	}
}

func TestVectorReexpression(t *testing.T) {
	sub, s := chainFixture(t, Vector{math.Pi / 2, 0}, Vector{0, 0})

	vG, err := sub.VectorInGround(s, 1, spatial.Vec3{X: 1})
	if err != nil {
		t.Fatal(err)
	}
	vecClose(t, "x axis of body 1 in ground", vG, spatial.Vec3{Y: 1}, 1e-12)

	// Reexpression never moves a vector's length.
	v := spatial.Vec3{X: 0.2, Y: -0.7, Z: 0.4}
	vB, err := sub.VectorInBody(s, 2, v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(vB.Norm()-v.Norm()) > 1e-12 {
		t.Errorf("reexpression changed length: %g vs %g", vB.Norm(), v.Norm())
	}
}
