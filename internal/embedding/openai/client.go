package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"

	defaultTimeout   = 30 * time.Second
	defaultRetryWait = 500 * time.Millisecond
	maxRetryWait     = 5 * time.Second
)

// Config configures the OpenAI-compatible embeddings client. The same client
// talks to OpenAI, Ollama and text-embeddings-inference.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Client embeds text through a remote /embeddings endpoint.
type Client struct {
	http   *resty.Client
	model  string
	logger *zap.Logger

	mu        sync.RWMutex
	dimension int
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	wait := cfg.RetryWait
	if wait <= 0 {
		wait = defaultRetryWait
	}

	if cfg.MaxRetries < 0 {
		return nil, errors.New("max retries must not be negative")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError)
		})

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		client.SetAuthToken(key)
	}

	return &Client{
		http:      client,
		model:     model,
		dimension: cfg.Dimension,
		logger:    logger.WithCommonFields(log, "openai", model),
	}, nil
}

func (c *Client) Name() string { return "openai:" + c.model }

// Dimension is the configured dimension or, when unset, the length of the
// first vector returned by the endpoint.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": c.model,
			"input": text,
		}).
		Post("/embeddings")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: request embeddings: %v", embedding.ErrModelUnavailable, err)
	}

	if resp.IsError() {
		return nil, c.statusError(resp)
	}

	vec, err := parseEmbedding(resp.Body())
	if err != nil {
		return nil, err
	}

	if err := c.checkDimension(len(vec)); err != nil {
		return nil, err
	}

	c.logger.Debug("embedded text", zap.Int("dimension", len(vec)), zap.Duration("latency", resp.Time()))

	return vec, nil
}

func (c *Client) statusError(resp *resty.Response) error {
	msg := gjson.GetBytes(resp.Body(), "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}

	err := fmt.Errorf("embeddings endpoint returned %s: %s", resp.Status(), logger.Preview(msg, 200))

	switch code := resp.StatusCode(); {
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %v", embedding.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %v", embedding.ErrModelUnavailable, err)
	}
}

func (c *Client) checkDimension(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dimension == 0 {
		c.dimension = n
		return nil
	}
	if c.dimension != n {
		return fmt.Errorf("embeddings endpoint returned %d dimensions, expected %d", n, c.dimension)
	}
	return nil
}

// parseEmbedding accepts the OpenAI shape {"data":[{"embedding":[...]}]} and
// the Ollama shape {"embedding":[...]}.
func parseEmbedding(body []byte) ([]float64, error) {
	values := gjson.GetBytes(body, "data.0.embedding")
	if !values.Exists() {
		values = gjson.GetBytes(body, "embedding")
	}
	if !values.Exists() || !values.IsArray() {
		return nil, errors.New("embeddings response has no embedding array")
	}

	items := values.Array()
	if len(items) == 0 {
		return nil, errors.New("embeddings response contains an empty vector")
	}

	vec := make([]float64, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, fmt.Errorf("embedding value %d is not a number", i)
		}
		vec[i] = item.Float()
	}

	return vec, nil
}
