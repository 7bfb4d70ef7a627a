package vector

import "math"

// CosineSimilarity calculates the cosine similarity between two vectors.
// Mismatched lengths and zero-norm vectors score 0 rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of the vector.
func Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit length (L2 norm) in place and
// returns it. Zero vectors are returned unchanged.
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	norm := Norm(vec)
	if norm == 0 {
		return vec
	}
	inv := float32(1 / norm)
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
