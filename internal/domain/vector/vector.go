// Package vector holds pure vector arithmetic shared by the semantic cache and personalization.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// CosineSimilarity returns dot(a,b)/(|a||b|) in [-1, 1].
// Nil, empty, mismatched or zero-norm inputs yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// float rounding can push identical vectors slightly past 1
	return math.Max(-1, math.Min(1, sim))
}

// Average returns the element-wise mean of equally sized vectors.
func Average(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to average", domain.ErrInvalidInput)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}

	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				domain.ErrInvalidInput, i, len(v), dim)
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}

	out := make([]float32, dim)
	n := float64(len(vectors))
	for j, s := range sum {
		out[j] = float32(s / n)
	}
	return out, nil
}
