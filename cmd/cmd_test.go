package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	configureViper(v)

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}

	if config.Embedder.Type != embedderHashing || config.Embedder.Dimension != embedding.DefaultDimension {
		t.Fatalf("unexpected embedder defaults: %+v", config.Embedder)
	}
	if config.Embedder.OpenAI.Timeout != 30*time.Second || config.Embedder.OpenAI.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("unexpected openai defaults: %+v", config.Embedder.OpenAI)
	}
	if config.Server.Address != ":8000" || config.Server.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected server defaults: %+v", config.Server)
	}
	if config.Server.RateLimit.Max != 60 || config.Server.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", config.Server.RateLimit)
	}
	if len(config.Server.AllowedOrigins) != 2 {
		t.Fatalf("unexpected allowed origins: %v", config.Server.AllowedOrigins)
	}
	if config.Queue.Name != "analyses" || config.Queue.Exchange != "analysis_results" || config.Queue.Workers != 3 {
		t.Fatalf("unexpected queue defaults: %+v", config.Queue)
	}
	if config.Storage.S3.Region != "auto" {
		t.Fatalf("unexpected storage defaults: %+v", config.Storage.S3)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("MATCHER_EMBEDDER_TYPE", "static")
	t.Setenv("MATCHER_EMBEDDER_DIMENSION", "16")
	t.Setenv("MATCHER_SERVER_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("MATCHER_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MATCHER_QUEUE_WORKERS", "8")

	v := viper.New()
	configureViper(v)

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}

	if config.Embedder.Type != embedderStatic || config.Embedder.Dimension != 16 {
		t.Fatalf("embedder not overridden: %+v", config.Embedder)
	}
	if config.Server.RateLimit.Window != 30*time.Second {
		t.Fatalf("window not overridden: %v", config.Server.RateLimit.Window)
	}
	if strings.Join(config.Server.AllowedOrigins, " ") != "https://a.example https://b.example" {
		t.Fatalf("origins not overridden: %v", config.Server.AllowedOrigins)
	}
	if config.Queue.Workers != 8 {
		t.Fatalf("workers not overridden: %d", config.Queue.Workers)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matcher.yaml")
	content := `
taxonomy-file: /etc/matcher/skills.yaml
embedder:
  type: openai
  cache: true
  openai:
    base-url: http://localhost:11434/v1
    model: nomic-embed-text
server:
  rate-limit:
    max: 5
storage:
  s3:
    bucket: resumes
    endpoint: https://account.r2.cloudflarestorage.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	configureViper(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig returned error: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}

	if config.TaxonomyFile != "/etc/matcher/skills.yaml" {
		t.Fatalf("unexpected taxonomy file %q", config.TaxonomyFile)
	}
	if config.Embedder.Type != embedderOpenAI || !config.Embedder.Cache || config.Embedder.OpenAI.Model != "nomic-embed-text" {
		t.Fatalf("unexpected embedder config: %+v", config.Embedder)
	}
	if config.Embedder.OpenAI.MaxRetries != 3 {
		t.Fatalf("defaults must survive partial sections, got %+v", config.Embedder.OpenAI)
	}
	if config.Server.RateLimit.Max != 5 || config.Server.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit: %+v", config.Server.RateLimit)
	}
	if config.Storage.S3.Bucket != "resumes" || config.Storage.S3.Region != "auto" {
		t.Fatalf("unexpected storage config: %+v", config.Storage.S3)
	}
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		cfg    EmbedderConfig
		expect string
		dim    int
		target error
	}{
		{name: "default is hashing", cfg: EmbedderConfig{Dimension: 64}, expect: "hashing", dim: 64},
		{name: "static", cfg: EmbedderConfig{Type: " Static ", Dimension: 8}, expect: "static", dim: 8},
		{name: "cached", cfg: EmbedderConfig{Type: "hashing", Dimension: 32, Cache: true}, expect: "hashing", dim: 32},
		{name: "openai without key", cfg: EmbedderConfig{Type: "openai", Dimension: 16, OpenAI: OpenAIConfig{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text"}}, expect: "openai:nomic-embed-text", dim: 16},
		{name: "onnx without files", cfg: EmbedderConfig{Type: "onnx", ONNX: ONNXConfig{ModelPath: "/nonexistent/model.onnx"}}, target: embedding.ErrModelUnavailable},
		{name: "unknown", cfg: EmbedderConfig{Type: "word2vec"}, target: errUnsupportedEmbedder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, release, err := newEmbedder(context.Background(), tt.cfg, zap.NewNop())
			defer release()

			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Fatalf("expected %v, got %v", tt.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("newEmbedder returned error: %v", err)
			}
			if e.Name() != tt.expect || e.Dimension() != tt.dim {
				t.Fatalf("unexpected embedder %s/%d", e.Name(), e.Dimension())
			}
			if _, cached := e.(*embedding.Cached); cached != tt.cfg.Cache {
				t.Fatalf("cache wrapper mismatch: %T", e)
			}
		})
	}
}

func TestNewEmbedderGeminiNeedsKey(t *testing.T) {
	t.Setenv("MATCHER_TEST_GEMINI_KEY", "")

	_, _, err := newEmbedder(context.Background(), EmbedderConfig{
		Type:   "gemini",
		Gemini: GeminiConfig{APIKeyEnv: "MATCHER_TEST_GEMINI_KEY"},
	}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "gemini api key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestNewAnalyzerDegraded(t *testing.T) {
	config := &Config{Embedder: EmbedderConfig{Type: "onnx", ONNX: ONNXConfig{ModelPath: "/nonexistent/model.onnx"}}}

	if _, _, err := newAnalyzer(context.Background(), config, false, zap.NewNop()); !errors.Is(err, embedding.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}

	analyzer, release, err := newAnalyzer(context.Background(), config, true, zap.NewNop())
	if err != nil {
		t.Fatalf("degraded analyzer returned error: %v", err)
	}
	defer release()

	if analyzer.Ready() {
		t.Fatalf("degraded analyzer must not report ready")
	}

	config.Embedder.Type = "word2vec"
	if _, _, err := newAnalyzer(context.Background(), config, true, zap.NewNop()); !errors.Is(err, errUnsupportedEmbedder) {
		t.Fatalf("configuration mistakes must fail even when degraded, got %v", err)
	}
}

func TestNewFetcherWithoutBucket(t *testing.T) {
	fetcher, err := newFetcher(context.Background(), &Config{}, zap.NewNop())
	if err != nil || fetcher != nil {
		t.Fatalf("expected no fetcher, got %v %v", fetcher, err)
	}
}

func TestFileInput(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "Resume.TXT")
	if err := os.WriteFile(resume, []byte("Go developer"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}
	image := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(image, []byte{0x89, 0x50}, 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	in, err := fileInput(resume, 0)
	if err != nil {
		t.Fatalf("fileInput returned error: %v", err)
	}
	if in.Document == nil || in.Document.Format != document.FormatPlainText || in.Document.Name != "Resume.TXT" {
		t.Fatalf("unexpected input %+v", in)
	}

	if _, err := fileInput(resume, 4); !errors.Is(err, errFileTooLarge) {
		t.Fatalf("expected size error, got %v", err)
	}
	if _, err := fileInput(image, 0); !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if _, err := fileInput(filepath.Join(dir, "missing.pdf"), 0); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}

	folder := filepath.Join(dir, "folder.txt")
	if err := os.Mkdir(folder, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := validateDocumentPath(folder); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("directories must be rejected, got %v", err)
	}
	if err := validateDocumentPath(resume); err != nil {
		t.Fatalf("validateDocumentPath returned error: %v", err)
	}
}

func TestResolveInput(t *testing.T) {
	cmd := analyzeCmd
	t.Cleanup(func() {
		cmd.Flags().Set("resume-text", "")
		cmd.Flags().Lookup("resume-text").Changed = false
	})

	if _, err := resolveInput(cmd, "resume", "Resume", false, 0); !errors.Is(err, matcher.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}

	if err := cmd.Flags().Set("resume-text", "Python and SQL"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	in, err := resolveInput(cmd, "resume", "Resume", false, 0)
	if err != nil {
		t.Fatalf("resolveInput returned error: %v", err)
	}
	if in.Text != "Python and SQL" {
		t.Fatalf("unexpected input %+v", in)
	}
}
