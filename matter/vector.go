package matter

import "math"

// Vector is a dense slice of generalized coordinates, speeds, or
// constraint errors.
type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// WeightedNorm is sqrt(v^T W v) for a diagonal weight vector w. A short w
// is treated as padded with unit weights.
func (v Vector) WeightedNorm(w Vector) float64 {
	sum := 0.0
	for i, x := range v {
		wi := 1.0
		if i < len(w) {
			wi = w[i]
		}
		sum += wi * x * x
	}
	return math.Sqrt(sum)
}

func ones(n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
