package spatial

// Inertia is a rotational inertia matrix (symmetric, about some stated
// point, expressed in some stated frame). Which point and frame is part of
// the calling code's bookkeeping, not the type.
type Inertia struct {
	m Mat3
}

// NewInertia builds an inertia from moments (xx, yy, zz) and products
// (xy, xz, yz), using the convention that products are stored negated in
// the off-diagonal slots.
func NewInertia(xx, yy, zz, xy, xz, yz float64) Inertia {
	return Inertia{Mat3{
		xx, -xy, -xz,
		-xy, yy, -yz,
		-xz, -yz, zz,
	}}
}

// PrincipalInertia builds a diagonal inertia.
func PrincipalInertia(xx, yy, zz float64) Inertia {
	return NewInertia(xx, yy, zz, 0, 0, 0)
}

// PointMassInertia is the inertia of a point mass m offset by r from the
// reference point: m*(|r|^2*E - r*r^T).
func PointMassInertia(mass float64, r Vec3) Inertia {
	e := IdentityMat3().Scale(mass * r.NormSq())
	return Inertia{e.Sub(outer(r, r).Scale(mass))}
}

func (i Inertia) Mat() Mat3 { return i.m }

func (i Inertia) Add(j Inertia) Inertia { return Inertia{i.m.Add(j.m)} }
func (i Inertia) Sub(j Inertia) Inertia { return Inertia{i.m.Sub(j.m)} }

// Trace is the sum of the diagonal moments, invariant under reexpression.
func (i Inertia) Trace() float64 { return i.m.M00 + i.m.M11 + i.m.M22 }

// Reexpress rotates the inertia into new axes by the similarity transform
// R * I * R^T, where R takes vectors from the current frame to the new one.
func (i Inertia) Reexpress(r Rotation) Inertia {
	return Inertia{r.Mat().Mul(i.m).Mul(r.Mat().Transpose())}
}

// ShiftFromCOM applies the parallel-axis theorem to an inertia taken about
// the center of mass, producing the inertia about a point at offset r from
// the COM.
func (i Inertia) ShiftFromCOM(mass float64, r Vec3) Inertia {
	return i.Add(PointMassInertia(mass, r))
}

// ShiftToCOM inverts ShiftFromCOM: given the inertia about a point at
// offset r from the COM, recover the central inertia.
func (i Inertia) ShiftToCOM(mass float64, r Vec3) Inertia {
	return i.Sub(PointMassInertia(mass, r))
}

// MassProperties describes a rigid body's mass, center-of-mass location
// measured from the body origin, and inertia about the body origin, all
// expressed in the body frame.
type MassProperties struct {
	Mass    float64
	COM     Vec3
	Inertia Inertia
}

// CentralInertia is the inertia about the mass center.
func (mp MassProperties) CentralInertia() Inertia {
	return mp.Inertia.ShiftToCOM(mp.Mass, mp.COM)
}

// Reexpress rotates the mass properties into new axes (same origin point).
// R takes vectors from the current frame to the new one.
func (mp MassProperties) Reexpress(r Rotation) MassProperties {
	return MassProperties{
		Mass:    mp.Mass,
		COM:     r.Apply(mp.COM),
		Inertia: mp.Inertia.Reexpress(r),
	}
}

// TransformedBy remeasures the mass properties in a new frame A given
// X_AB, with the inertia taken about A's origin.
func (mp MassProperties) TransformedBy(x Transform) MassProperties {
	comA := x.Apply(mp.COM)
	central := mp.CentralInertia().Reexpress(x.R)
	return MassProperties{
		Mass:    mp.Mass,
		COM:     comA,
		Inertia: central.ShiftFromCOM(mp.Mass, comA),
	}
}

// SpatialMat lays the mass properties out as the 6x6 spatial inertia
//
//	[ I      m*cx ]
//	[ m*cx^T  m*E ]
//
// with I the inertia about the origin, cx the cross-product matrix of the
// COM offset, and E identity. Row-major, rows 0-2 angular, rows 3-5
// linear.
func (mp MassProperties) SpatialMat() [6][6]float64 {
	var out [6][6]float64
	im := mp.Inertia.Mat()
	cx := crossMat(mp.COM).Scale(mp.Mass)

	put3 := func(r0, c0 int, m Mat3) {
		out[r0+0][c0+0], out[r0+0][c0+1], out[r0+0][c0+2] = m.M00, m.M01, m.M02
		out[r0+1][c0+0], out[r0+1][c0+1], out[r0+1][c0+2] = m.M10, m.M11, m.M12
		out[r0+2][c0+0], out[r0+2][c0+1], out[r0+2][c0+2] = m.M20, m.M21, m.M22
	}
	put3(0, 0, im)
	put3(0, 3, cx)
	put3(3, 0, cx.Transpose())
	put3(3, 3, IdentityMat3().Scale(mp.Mass))
	return out
}

// crossMat is the skew-symmetric matrix with crossMat(v)*w = v x w.
func crossMat(v Vec3) Mat3 {
	return Mat3{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}
}

// Combine sums the mass properties of two disjoint bodies already measured
// about a common origin in a common frame.
func Combine(a, b MassProperties) MassProperties {
	total := a.Mass + b.Mass
	com := Vec3{}
	if total > 0 {
		com = a.COM.Scale(a.Mass).Add(b.COM.Scale(b.Mass)).Scale(1 / total)
	}
	return MassProperties{
		Mass:    total,
		COM:     com,
		Inertia: a.Inertia.Add(b.Inertia),
	}
}
