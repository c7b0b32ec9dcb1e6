package embedding

import "context"

const staticValue = 0.1

// Static maps every text to the same constant vector. It stands in for a real
// model where none is installed; every pair of texts scores 1.0.
type Static struct {
	dimension int
}

func NewStatic(dimension int) *Static {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Static{dimension: dimension}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Dimension() int { return s.dimension }

func (s *Static) Embed(ctx context.Context, _ string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimension)
	for i := range vec {
		vec[i] = staticValue
	}
	return vec, nil
}
