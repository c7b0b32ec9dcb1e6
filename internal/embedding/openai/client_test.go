package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()

	c, err := New(Config{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: retries,
		RetryWait:  time.Millisecond,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestEmbedOpenAIShape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "test-model" || body["input"] != "golang developer" {
			t.Errorf("unexpected request body: %v", body)
		}

		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.25,-0.5,1]}],"model":"test-model"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	vec, err := c.Embed(context.Background(), "golang developer")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}

	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if c.Dimension() != 3 {
		t.Fatalf("expected learnt dimension 3, got %d", c.Dimension())
	}
	if c.Name() != "openai:test-model" {
		t.Fatalf("unexpected name %q", c.Name())
	}
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	vec, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestEmbedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		body            string
		wantUnavailable bool
		wantInvalid     bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`, wantUnavailable: true},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantUnavailable: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":{"message":"input too long"}}`, wantInvalid: true},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `{"error":{"message":"empty input"}}`, wantInvalid: true},
		{name: "malformed body", status: http.StatusOK, body: `{"data":[]}`},
		{name: "non numeric", status: http.StatusOK, body: `{"embedding":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, 0).Embed(context.Background(), "text")
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, embedding.ErrModelUnavailable); got != tt.wantUnavailable {
				t.Fatalf("expected unavailable=%v, got %v (%v)", tt.wantUnavailable, got, err)
			}
			if got := errors.Is(err, embedding.ErrInvalidInput); got != tt.wantInvalid {
				t.Fatalf("expected invalid=%v, got %v (%v)", tt.wantInvalid, got, err)
			}
		})
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2,3]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Dimension: 4}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestEmbedUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, 0).Embed(context.Background(), "text")
	if !errors.Is(err, embedding.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
