package spatial

// Transform is a rigid transform X_AB: the pose of frame B measured and
// expressed in frame A. It is stored as an orthonormal rotation plus a
// translation, never as a raw 4x4 matrix, so the inverse is exact up to
// floating-point roundoff.
type Transform struct {
	R Rotation
	P Vec3
}

func IdentityTransform() Transform {
	return Transform{R: IdentityRotation()}
}

// Translation is a pure-translation transform.
func Translation(p Vec3) Transform {
	return Transform{R: IdentityRotation(), P: p}
}

// NewTransform pairs a rotation with a translation.
func NewTransform(r Rotation, p Vec3) Transform {
	return Transform{R: r, P: p}
}

// Compose returns X_AC = X_AB * X_BC. The translation transports as
// p_AC = p_AB + R_AB*p_BC.
func (x Transform) Compose(y Transform) Transform {
	return Transform{
		R: x.R.Compose(y.R),
		P: x.P.Add(x.R.Apply(y.P)),
	}
}

// Inverse returns X_BA given X_AB.
func (x Transform) Inverse() Transform {
	ri := x.R.Inverse()
	return Transform{
		R: ri,
		P: ri.Apply(x.P).Neg(),
	}
}

// Apply transforms a point measured in B to the same point measured in A:
// p_A = R_AB*p_B + p_AB.
func (x Transform) Apply(p Vec3) Vec3 {
	return x.R.Apply(p).Add(x.P)
}

// InverseApply transforms a point measured in A back into B without forming
// the inverse transform.
func (x Transform) InverseApply(p Vec3) Vec3 {
	return x.R.InverseApply(p.Sub(x.P))
}
