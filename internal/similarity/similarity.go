package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
)

var (
	// ErrScorerUnavailable is returned when no embedder is configured or its
	// model is unavailable. embedding.ErrModelUnavailable stays in the chain.
	ErrScorerUnavailable = errors.New("similarity scorer unavailable")
	// ErrDimensionMismatch is returned when the two vectors differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Scorer measures semantic similarity through an injected embedder.
type Scorer struct {
	embedder embedding.Embedder
}

// New builds a Scorer. A nil embedder is accepted; every Score call then fails
// with ErrScorerUnavailable.
func New(embedder embedding.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Available reports whether an embedder is configured.
func (s *Scorer) Available() bool {
	return s != nil && s.embedder != nil
}

// EmbedderName returns the configured embedder name or an empty string.
func (s *Scorer) EmbedderName() string {
	if !s.Available() {
		return ""
	}
	return s.embedder.Name()
}

// Score returns the cosine similarity of a and b in [-1, 1]. If either text is
// blank the result is 0 and the embedder is not called.
func (s *Scorer) Score(ctx context.Context, a, b string) (float64, error) {
	if !s.Available() {
		return 0, fmt.Errorf("%w: no embedder configured", ErrScorerUnavailable)
	}

	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, nil
	}

	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, embedError("embed first text", err)
	}

	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, embedError("embed second text", err)
	}

	if len(va) != len(vb) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(va), len(vb))
	}

	return Cosine(va, vb), nil
}

// embedError only reports the scorer as unavailable when the model is. Rejected
// input and cancellation keep their own meaning.
func embedError(step string, err error) error {
	if errors.Is(err, embedding.ErrModelUnavailable) {
		return fmt.Errorf("%w: %s: %w", ErrScorerUnavailable, step, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

// Cosine returns dot(a, b) / (|a| * |b|), or 0 when either norm is zero.
// Vectors of different length are compared over their common prefix; Score
// rejects them before getting here.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}
