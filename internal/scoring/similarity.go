// Package scoring implements the pure match-score computations: cosine
// similarity over embeddings, Jaccard overlap over skill sets and the
// weighted combination of the two.
package scoring

import (
	"fmt"
	"math"

	"github.com/cloo-solutions/matchd/internal/domain"
)

// Cosine returns the cosine similarity of a and b clamped to [0,1].
//
// ok is false when either vector is empty or has zero magnitude; the score is
// then 0 and callers should treat the embedding component as unavailable.
// Vectors of different length are a caller bug and yield domain.ErrDimensionMismatch.
func Cosine(a, b []float32) (score float64, ok bool, err error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false, nil
	}
	if len(a) != len(b) {
		return 0, false, fmt.Errorf("%w: %d != %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, false, nil
	}

	return clampUnit(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true, nil
}

// clampUnit maps v into [0,1]; NaN and infinities become 0.
func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
