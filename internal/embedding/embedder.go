package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrModelUnavailable marks an embedder whose model is not loaded or not
// reachable. Callers treat it as a service availability problem, not bad input.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// ErrInvalidInput marks text the model refused, such as input over its
// token limit.
var ErrInvalidInput = errors.New("embedding input rejected")

// Embedder converts free text into a fixed-dimension vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Normalize scales v to unit length in place. A zero vector is left untouched.
func Normalize(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}

	n := math.Sqrt(sum)
	for i := range v {
		v[i] /= n
	}
	return v
}

// Float64s widens a float32 vector as returned by model runtimes and SDKs.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
