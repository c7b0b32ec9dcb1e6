package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultDimension matches the output size of all-MiniLM-L6-v2.
const DefaultDimension = 384

// Hashing is a lexical embedder. Tokens are feature-hashed into a fixed number
// of buckets with sublinear term frequency and the result is L2 normalized.
// It needs no model files and is deterministic across processes.
type Hashing struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewHashing(dimension int) *Hashing {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Hashing{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:[.'’][\p{L}\p{N}]+)*[+#]*`),
		stopwords:    defaultStopwords(),
	}
}

func (h *Hashing) Name() string { return "hashing" }

func (h *Hashing) Dimension() int { return h.dimension }

// Embed returns a zero vector for text with no indexable tokens.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf := make(map[string]int)
	for _, tok := range h.tokenize(text) {
		tf[tok]++
	}

	vec := make([]float64, h.dimension)
	for tok, count := range tf {
		idx, sign := h.bucket(tok)
		vec[idx] += sign * (1 + math.Log(float64(count)))
	}

	return Normalize(vec), nil
}

func (h *Hashing) bucket(token string) (int, float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(token))
	sum := hasher.Sum64()

	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(h.dimension)), sign
}

func (h *Hashing) tokenize(text string) []string {
	lower := strings.ToLower(norm.NFKC.String(text))
	raw := h.tokenPattern.FindAllString(lower, -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := h.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "should", "now", "we", "you", "our", "your", "i", "my", "have", "has",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
