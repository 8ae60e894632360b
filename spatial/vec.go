package spatial

import "math"

// Vec3 is a 3-component Cartesian vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(w Vec3) Vec3      { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }
func (v Vec3) Sub(w Vec3) Vec3      { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Neg() Vec3            { return Vec3{-v.X, -v.Y, -v.Z} }

func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

func (v Vec3) Norm() float64   { return math.Sqrt(v.Dot(v)) }
func (v Vec3) NormSq() float64 { return v.Dot(v) }

func (v Vec3) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Mat3 is a 3x3 matrix in row-major layout.
type Mat3 struct {
	M00, M01, M02 float64
	M10, M11, M12 float64
	M20, M21, M22 float64
}

func IdentityMat3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m.M00*v.X + m.M01*v.Y + m.M02*v.Z,
		m.M10*v.X + m.M11*v.Y + m.M12*v.Z,
		m.M20*v.X + m.M21*v.Y + m.M22*v.Z,
	}
}

func (m Mat3) Mul(n Mat3) Mat3 {
	return Mat3{
		m.M00*n.M00 + m.M01*n.M10 + m.M02*n.M20,
		m.M00*n.M01 + m.M01*n.M11 + m.M02*n.M21,
		m.M00*n.M02 + m.M01*n.M12 + m.M02*n.M22,

		m.M10*n.M00 + m.M11*n.M10 + m.M12*n.M20,
		m.M10*n.M01 + m.M11*n.M11 + m.M12*n.M21,
		m.M10*n.M02 + m.M11*n.M12 + m.M12*n.M22,

		m.M20*n.M00 + m.M21*n.M10 + m.M22*n.M20,
		m.M20*n.M01 + m.M21*n.M11 + m.M22*n.M21,
		m.M20*n.M02 + m.M21*n.M12 + m.M22*n.M22,
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m.M00, m.M10, m.M20,
		m.M01, m.M11, m.M21,
		m.M02, m.M12, m.M22,
	}
}

func (m Mat3) Add(n Mat3) Mat3 {
	return Mat3{
		m.M00 + n.M00, m.M01 + n.M01, m.M02 + n.M02,
		m.M10 + n.M10, m.M11 + n.M11, m.M12 + n.M12,
		m.M20 + n.M20, m.M21 + n.M21, m.M22 + n.M22,
	}
}

func (m Mat3) Sub(n Mat3) Mat3 {
	return Mat3{
		m.M00 - n.M00, m.M01 - n.M01, m.M02 - n.M02,
		m.M10 - n.M10, m.M11 - n.M11, m.M12 - n.M12,
		m.M20 - n.M20, m.M21 - n.M21, m.M22 - n.M22,
	}
}

func (m Mat3) Scale(s float64) Mat3 {
	return Mat3{
		m.M00 * s, m.M01 * s, m.M02 * s,
		m.M10 * s, m.M11 * s, m.M12 * s,
		m.M20 * s, m.M21 * s, m.M22 * s,
	}
}

// MaxAbs returns the largest absolute entry, the infinity-norm bound used
// for orthonormality drift checks.
func (m Mat3) MaxAbs() float64 {
	max := 0.0
	for _, c := range [9]float64{
		m.M00, m.M01, m.M02,
		m.M10, m.M11, m.M12,
		m.M20, m.M21, m.M22,
	} {
		if a := math.Abs(c); a > max {
			max = a
		}
	}
	return max
}

// outer returns v*w^T.
func outer(v, w Vec3) Mat3 {
	return Mat3{
		v.X * w.X, v.X * w.Y, v.X * w.Z,
		v.Y * w.X, v.Y * w.Y, v.Y * w.Z,
		v.Z * w.X, v.Z * w.Y, v.Z * w.Z,
	}
}
