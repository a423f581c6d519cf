// Package similarity decides whether a candidate item is a semantic
// near-duplicate of something already served in an attempt.
package similarity

import "math"

// Epsilon keeps the cosine denominator away from zero for zero vectors.
const Epsilon = 1e-12

// Comparable reports whether a and b can be compared: both carry a vector
// and the vectors have the same length. Vectors from different embedding
// models usually differ in length and are never comparable.
func Comparable(a, b []float32) bool {
	return len(a) > 0 && len(a) == len(b)
}

// Cosine returns the cosine similarity of a and b, or 0 when they are not
// Comparable.
func Cosine(a, b []float32) float64 {
	if !Comparable(a, b) {
		return 0
	}
	dot, na, nb := products(a, b)
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + Epsilon)
}

func products(a, b []float32) (dot, na, nb float64) {
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot, na, nb
}

// MaxCosine returns the highest similarity between candidate and any
// comparable vector in served. The second return value is false when
// nothing was compared.
func MaxCosine(candidate []float32, served [][]float32) (float64, bool) {
	best := math.Inf(-1)
	compared := false
	for _, v := range served {
		if !Comparable(candidate, v) {
			continue
		}
		if s := Cosine(candidate, v); s > best {
			best = s
		}
		compared = true
	}
	if !compared {
		return 0, false
	}
	return best, true
}

// Incomparable counts the served vectors that are present but cannot be
// compared with candidate, i.e. embeddings of a different size.
func Incomparable(candidate []float32, served [][]float32) int {
	if len(candidate) == 0 {
		return 0
	}
	n := 0
	for _, v := range served {
		if len(v) > 0 && len(v) != len(candidate) {
			n++
		}
	}
	return n
}

// TooSimilar reports whether candidate is at least threshold-similar to
// any comparable served vector. A candidate without a vector is never
// gated, and neither is one whose served peers all have another size.
func TooSimilar(candidate []float32, served [][]float32, threshold float64) bool {
	if len(candidate) == 0 {
		return false
	}
	for _, v := range served {
		if !Comparable(candidate, v) {
			continue
		}
		if Cosine(candidate, v) >= threshold || (threshold <= 1 && isParallel(candidate, v)) {
			return true
		}
	}
	return false
}

// isParallel reports whether a and b point the same way up to rounding.
// The epsilon in Cosine drags the similarity of tiny vectors below 1, so
// the threshold 1 case is decided without it.
func isParallel(a, b []float32) bool {
	dot, na, nb := products(a, b)
	if na == 0 || nb == 0 {
		return na == nb
	}
	return dot/(math.Sqrt(na)*math.Sqrt(nb)) >= 1-1e-9
}
