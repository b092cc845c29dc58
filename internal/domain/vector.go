package domain

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the normalized dot product of a and b in [-1, 1].
// Vectors of unequal length fail with ErrDimensionMismatch. If either vector
// has a zero L2 norm the similarity is defined as 0 (convention, not an error).
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp floating-point drift just outside [-1, 1].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// ValidateVector checks a vector before it enters similarity math.
// Zero-length vectors are ErrInvalidInput; a dimension mismatch against the
// expected dim (when dim > 0) is ErrDimensionMismatch.
func ValidateVector(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: zero-length vector", ErrInvalidInput)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
	}
	return nil
}
