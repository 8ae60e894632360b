package matter

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kinodyn/kinodyn/spatial"
)

// TreeKinematics is a kinematics-only Realizer: it runs base-to-tip
// forward kinematics through the tree's mobilizers and evaluates a
// constraint set, leaving forces and the derivation of generalized
// accelerations to external code. The acceleration stage propagates
// whatever udot the state currently carries, so scripted trajectories and
// tests can exercise every stage without a dynamics engine.
type TreeKinematics struct {
	tree        *Tree
	constraints []Constraint
}

func NewTreeKinematics(t *Tree, constraints ...Constraint) *TreeKinematics {
	return &TreeKinematics{tree: t, constraints: constraints}
}

// Constraints returns the constraint set in evaluation order.
func (tk *TreeKinematics) Constraints() []Constraint { return tk.constraints }

func (tk *TreeKinematics) RealizeModel(s *State) error {
	var mobs []Mobility
	for i := 1; i < tk.tree.NumBodies(); i++ {
		b := BodyID(i)
		m := tk.tree.Body(b).Mobilizer
		for k := 0; k < m.NumU(); k++ {
			mobs = append(mobs, Mobility{
				Body:    b,
				QIndex:  tk.tree.QIndex(b) + k,
				UIndex:  tk.tree.UIndex(b) + k,
				Angular: m.Angular(k),
			})
		}
	}
	s.SetMobilities(mobs)
	return nil
}

func (tk *TreeKinematics) RealizeInstance(s *State) error {
	for i := 0; i < tk.tree.NumBodies(); i++ {
		b := tk.tree.Body(BodyID(i))
		s.SetCachedMassProperties(BodyID(i), b.Mass)
		s.SetCachedMobilizerFrames(BodyID(i), b.FrameInParent, b.FrameInBody)
	}
	return nil
}

func (tk *TreeKinematics) RealizeTime(*State) error { return nil }

func (tk *TreeKinematics) RealizePosition(s *State) error {
	s.SetCachedBodyTransform(Ground, spatial.IdentityTransform())
	for i := 1; i < tk.tree.NumBodies(); i++ {
		b := BodyID(i)
		body := tk.tree.Body(b)
		xGP := s.CachedBodyTransform(body.Parent)
		xFM := body.Mobilizer.Transform(tk.tree.mobilityQ(b, s.q))
		xGM := xGP.Compose(body.FrameInParent).Compose(xFM)
		s.SetCachedBodyTransform(b, xGM.Compose(body.FrameInBody.Inverse()))
	}

	errs := make(Vector, 0)
	for _, c := range tk.constraints {
		row := make(Vector, c.NumEquations())
		if err := c.PositionErrors(s, row); err != nil {
			return err
		}
		errs = append(errs, row...)
	}
	s.SetQErr(errs)
	return nil
}

func (tk *TreeKinematics) RealizeVelocity(s *State) error {
	s.SetCachedBodyVelocity(Ground, spatial.SpatialVec{})
	for i := 1; i < tk.tree.NumBodies(); i++ {
		b := BodyID(i)
		body := tk.tree.Body(b)
		p := body.Parent

		xGP := s.CachedBodyTransform(p)
		xGF := xGP.Compose(body.FrameInParent)
		xGM := xGF.Compose(body.Mobilizer.Transform(tk.tree.mobilityQ(b, s.q)))
		xGB := s.CachedBodyTransform(b)
		vP := s.CachedBodyVelocity(p)

		rel := body.Mobilizer.Velocity(tk.tree.mobilityQ(b, s.q), tk.tree.mobilityU(b, s.u))
		wRel := xGF.R.Apply(rel.Ang)
		vRel := xGF.R.Apply(rel.Lin)

		// Velocity of the parent-fixed point coinciding with M's origin,
		// plus the cross-mobilizer relative velocity.
		rPM := xGM.P.Sub(xGP.P)
		wB := vP.Ang.Add(wRel)
		vM := vP.Lin.Add(vP.Ang.Cross(rPM)).Add(vRel)

		rMB := xGB.P.Sub(xGM.P)
		s.SetCachedBodyVelocity(b, spatial.SpatialVec{
			Ang: wB,
			Lin: vM.Add(wB.Cross(rMB)),
		})
	}

	errs := make(Vector, 0)
	for _, c := range tk.constraints {
		row := make(Vector, c.NumEquations())
		if err := c.VelocityErrors(s, row); err != nil {
			return err
		}
		errs = append(errs, row...)
	}
	s.SetUErr(errs)
	return nil
}

func (tk *TreeKinematics) RealizeDynamics(*State) error { return nil }

func (tk *TreeKinematics) RealizeAcceleration(s *State) error {
	s.SetCachedBodyAcceleration(Ground, spatial.SpatialVec{})
	for i := 1; i < tk.tree.NumBodies(); i++ {
		b := BodyID(i)
		body := tk.tree.Body(b)
		p := body.Parent

		q := tk.tree.mobilityQ(b, s.q)
		u := tk.tree.mobilityU(b, s.u)
		ud := tk.tree.mobilityU(b, s.udot)

		xGP := s.CachedBodyTransform(p)
		xGF := xGP.Compose(body.FrameInParent)
		xGM := xGF.Compose(body.Mobilizer.Transform(q))
		xGB := s.CachedBodyTransform(b)
		vP := s.CachedBodyVelocity(p)
		aP := s.CachedBodyAcceleration(p)

		rel := body.Mobilizer.Velocity(q, u)
		relDot := body.Mobilizer.Acceleration(q, u, ud)
		wRel := xGF.R.Apply(rel.Ang)
		vRel := xGF.R.Apply(rel.Lin)
		alRel := xGF.R.Apply(relDot.Ang)
		aRel := xGF.R.Apply(relDot.Lin)

		wB := vP.Ang.Add(wRel)
		alB := aP.Ang.Add(alRel).Add(vP.Ang.Cross(wRel))

		// Parent-fixed point at M's origin: Euler + centripetal transport,
		// then Coriolis and relative terms across the mobilizer.
		rPM := xGM.P.Sub(xGP.P)
		aM := aP.Lin.
			Add(aP.Ang.Cross(rPM)).
			Add(vP.Ang.Cross(vP.Ang.Cross(rPM))).
			Add(vP.Ang.Cross(vRel).Scale(2)).
			Add(aRel)

		rMB := xGB.P.Sub(xGM.P)
		s.SetCachedBodyAcceleration(b, spatial.SpatialVec{
			Ang: alB,
			Lin: aM.Add(alB.Cross(rMB)).Add(wB.Cross(wB.Cross(rMB))),
		})
	}
	s.SetCachedUDot(s.udot)

	errs := make(Vector, 0)
	for _, c := range tk.constraints {
		row := make(Vector, c.NumEquations())
		if err := c.AccelerationErrors(s, row); err != nil {
			return err
		}
		errs = append(errs, row...)
	}
	s.SetUDotErr(errs)
	return nil
}

// QJacobian assembles the analytic position-constraint Jacobian when every
// constraint can supply its rows; otherwise it reports false and the
// projector falls back to finite differences.
func (tk *TreeKinematics) QJacobian(s *State, dst *mat.Dense) bool {
	row := 0
	for _, c := range tk.constraints {
		aj, ok := c.(QJacobianConstraint)
		if !ok {
			return false
		}
		if !aj.QJacobianRows(s, row, dst) {
			return false
		}
		row += c.NumEquations()
	}
	return true
}

// UJacobian is the velocity-level analog of QJacobian.
func (tk *TreeKinematics) UJacobian(s *State, dst *mat.Dense) bool {
	row := 0
	for _, c := range tk.constraints {
		aj, ok := c.(UJacobianConstraint)
		if !ok {
			return false
		}
		if !aj.UJacobianRows(s, row, dst) {
			return false
		}
		row += c.NumEquations()
	}
	return true
}
