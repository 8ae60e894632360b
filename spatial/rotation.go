package spatial

import "math"

// OrthoDriftTol is the documented bound on rotation orthonormality drift,
// measured as the largest absolute entry of R^T*R - I. Compositions that
// stay below it are safe to keep; above it the rotation must be
// re-orthonormalized before further use.
const OrthoDriftTol = 1e-12

// Rotation is an orthonormal 3x3 matrix. The zero value is not usable;
// construct one with IdentityRotation, RotX/RotY/RotZ, or by composing
// existing rotations, so orthonormality is preserved by construction.
type Rotation struct {
	m Mat3
}

func IdentityRotation() Rotation {
	return Rotation{IdentityMat3()}
}

// RotX is a rotation of angle theta (radians) about the x axis.
func RotX(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}}
}

// RotY is a rotation of angle theta (radians) about the y axis.
func RotY(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}}
}

// RotZ is a rotation of angle theta (radians) about the z axis.
func RotZ(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}}
}

// Compose returns this rotation followed on the right by q: R_AC = R_AB*R_BC.
func (r Rotation) Compose(q Rotation) Rotation {
	return Rotation{r.m.Mul(q.m)}
}

// Inverse returns the inverse rotation, which for an orthonormal matrix is
// its transpose.
func (r Rotation) Inverse() Rotation {
	return Rotation{m: r.m.Transpose()}
}

// Apply rotates v: returns R*v.
func (r Rotation) Apply(v Vec3) Vec3 {
	return r.m.MulVec(v)
}

// InverseApply rotates v by the inverse rotation: returns R^T*v.
func (r Rotation) InverseApply(v Vec3) Vec3 {
	m := r.m
	return Vec3{
		m.M00*v.X + m.M10*v.Y + m.M20*v.Z,
		m.M01*v.X + m.M11*v.Y + m.M21*v.Z,
		m.M02*v.X + m.M12*v.Y + m.M22*v.Z,
	}
}

// Mat returns the underlying matrix by value.
func (r Rotation) Mat() Mat3 { return r.m }

// IsZero reports whether r is the unusable zero value rather than a
// constructed rotation.
func (r Rotation) IsZero() bool { return r.m == Mat3{} }

// Drift measures departure from orthonormality as the largest absolute
// entry of R^T*R - I.
func (r Rotation) Drift() float64 {
	return r.m.Transpose().Mul(r.m).Sub(IdentityMat3()).MaxAbs()
}

// Reorthonormalized returns the nearest-in-practice orthonormal rotation,
// obtained by one modified Gram-Schmidt pass over the columns.
func (r Rotation) Reorthonormalized() Rotation {
	m := r.m
	x := Vec3{m.M00, m.M10, m.M20}
	y := Vec3{m.M01, m.M11, m.M21}

	x = x.Scale(1 / x.Norm())
	y = y.Sub(x.Scale(x.Dot(y)))
	y = y.Scale(1 / y.Norm())
	z := x.Cross(y)

	return Rotation{Mat3{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}}
}
