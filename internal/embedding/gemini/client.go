package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/utils"
)

const (
	DefaultModel = "gemini-embedding-001"

	taskType      = "SEMANTIC_SIMILARITY"
	baseBackoff   = time.Second
	maxRetryDelay = 10 * time.Second
)

var sleep = utils.WaitFor

var retryDelayPattern = regexp.MustCompile(`retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type embedClient interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder calls the Gemini embeddings API.
type Embedder struct {
	models     embedClient
	model      string
	dimension  int
	maxRetries int
	logger     *zap.Logger
}

// New creates an Embedder configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, dimension, maxRetries int, log *zap.Logger) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Embedder{
		models:     client.Models,
		model:      model,
		dimension:  dimension,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(log, "gemini", model),
	}, nil
}

func (e *Embedder) Name() string { return "gemini:" + e.model }

func (e *Embedder) Dimension() int { return e.dimension }

// Embed requests a single embedding. Temporary API errors are retried with a
// linear backoff up to maxRetries attempts in total.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e == nil || e.models == nil {
		return nil, fmt.Errorf("%w: gemini embedder is not initialized", embedding.ErrModelUnavailable)
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if e.dimension > 0 {
		dim := int32(e.dimension)
		cfg.OutputDimensionality = &dim
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.models.EmbedContent(ctx, e.model, contents, cfg)
		if err == nil {
			return e.vector(resp)
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == e.maxRetries {
			break
		}

		e.logger.Warn("temporary gemini error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var apiErr genai.APIError
	if errors.As(lastErr, &apiErr) && apiErr.Code == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: embed content: %w", embedding.ErrInvalidInput, lastErr)
	}

	return nil, fmt.Errorf("%w: embed content: %v", embedding.ErrModelUnavailable, lastErr)
}

func (e *Embedder) vector(resp *genai.EmbedContentResponse) ([]float64, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, errors.New("gemini api returned an empty embedding")
	}

	if e.dimension > 0 && len(values) != e.dimension {
		return nil, fmt.Errorf("gemini api returned %d dimensions, expected %d", len(values), e.dimension)
	}

	return embedding.Float64s(values), nil
}

// retryDelay reports whether err is worth retrying and how long to wait.
// Quota errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if d, ok := parseRetryDelay(apiErr.Message); ok {
			return d, d <= maxRetryDelay
		}
		return baseBackoff * time.Duration(attempt), true
	case apiErr.Code >= http.StatusInternalServerError:
		return baseBackoff * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func parseRetryDelay(msg string) (time.Duration, bool) {
	m := retryDelayPattern.FindStringSubmatch(strings.ToLower(msg))
	if m == nil {
		return 0, false
	}

	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
