// Package vec provides the dense vector primitives used by the search engine.
//
// All stored vectors are unit-norm, so the dot product of two vectors is
// their cosine similarity and 1 - dot is the cosine distance. The engine
// enforces a fixed dimension before any of these functions are called;
// they do not re-validate lengths.
package vec

import "math"

// DotProduct computes the dot product of two equal-length vectors.
// For unit-norm inputs this is the cosine similarity in [-1, 1].
func DotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosineDistance computes 1 - DotProduct for unit-norm vectors.
func CosineDistance(a, b []float32) float64 {
	return 1.0 - DotProduct(a, b)
}

// Normalize returns a unit-norm copy of v. A zero vector is returned
// unchanged (as a copy) since it has no direction.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// SquaredNorm returns the sum of squared components.
func SquaredNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

// IsUnitNorm reports whether v is unit-norm to within tol.
func IsUnitNorm(v []float32, tol float64) bool {
	return math.Abs(SquaredNorm(v)-1.0) < tol
}
