package entity

import "math"

// CosineSimilarity returns dot(a,b) / (|a|*|b|) in [-1, 1].
// A length mismatch means two different embedding models are in play,
// which is a deployment misconfiguration: it fails with
// ErrDimensionMismatch instead of being tolerated. A zero-norm vector
// yields similarity 0.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return float32(dot / denom), nil
}
