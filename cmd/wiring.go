package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/gemini"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/onnx"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/openai"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/secrets"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/similarity"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/skills"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/storage"
)

const (
	embedderHashing = "hashing"
	embedderStatic  = "static"
	embedderONNX    = "onnx"
	embedderOpenAI  = "openai"
	embedderGemini  = "gemini"
)

var errUnsupportedEmbedder = errors.New("unsupported embedder")

func noop() {}

// newEmbedder builds the configured embedder. The returned release func must
// be called once the embedder is no longer used.
func newEmbedder(ctx context.Context, cfg EmbedderConfig, log *zap.Logger) (embedding.Embedder, func(), error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Type))

	var (
		e       embedding.Embedder
		release = noop
	)

	switch kind {
	case "", embedderHashing:
		e = embedding.NewHashing(cfg.Dimension)
	case embedderStatic:
		e = embedding.NewStatic(cfg.Dimension)
	case embedderONNX:
		model, err := onnx.New(onnx.Config{
			LibraryPath:   cfg.ONNX.LibraryPath,
			ModelPath:     cfg.ONNX.ModelPath,
			TokenizerPath: cfg.ONNX.TokenizerPath,
			MaxSeqLen:     cfg.ONNX.MaxSeqLen,
			Dimension:     cfg.Dimension,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		e = model
		release = func() {
			if err := model.Close(); err != nil {
				log.Warn("closing onnx session", zap.Error(err))
			}
		}
	case embedderOpenAI:
		// Local servers such as Ollama accept requests without a key.
		apiKey, err := secrets.LoadOptional(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   cfg.OpenAI.APIKeyEnv,
		})
		if err != nil {
			return nil, noop, err
		}
		client, err := openai.New(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKey:     apiKey,
			Model:      cfg.OpenAI.Model,
			Dimension:  cfg.Dimension,
			Timeout:    cfg.OpenAI.Timeout,
			MaxRetries: cfg.OpenAI.MaxRetries,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		e = client
	case embedderGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   cfg.Gemini.APIKeyEnv,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set embedder.gemini.api-key-file or $%s)", err, cfg.Gemini.APIKeyEnv)
		}
		client, err := gemini.New(ctx, apiKey, cfg.Gemini.Model, cfg.Dimension, cfg.Gemini.MaxRetries, log)
		if err != nil {
			return nil, noop, err
		}
		e = client
	default:
		return nil, noop, fmt.Errorf("%w: %s", errUnsupportedEmbedder, cfg.Type)
	}

	if cfg.Cache {
		e = embedding.NewCached(e, cfg.CacheSize)
	}

	return e, release, nil
}

// newAnalyzer wires the recognizer and scorer. With degraded set an embedder
// that fails to load leaves the analyzer without a scorer instead of failing,
// so the HTTP server can still report its health.
func newAnalyzer(ctx context.Context, config *Config, degraded bool, log *zap.Logger) (*matcher.Analyzer, func(), error) {
	tax, err := skills.LoadTaxonomy(config.TaxonomyFile)
	if err != nil {
		return nil, noop, fmt.Errorf("loading taxonomy: %w", err)
	}
	recognizer, err := skills.NewRecognizer(tax)
	if err != nil {
		return nil, noop, err
	}

	e, release, err := newEmbedder(ctx, config.Embedder, log)
	if err != nil {
		if !degraded || errors.Is(err, errUnsupportedEmbedder) {
			return nil, noop, fmt.Errorf("building embedder: %w", err)
		}
		log.Error("embedder unavailable, similarity scoring disabled", zap.String("type", config.Embedder.Type), zap.Error(err))
		e = nil
	}

	analyzer, err := matcher.New(recognizer, similarity.New(e), log)
	if err != nil {
		release()
		return nil, noop, err
	}

	log.Info("analyzer ready",
		zap.String("embedder", analyzer.EmbedderName()),
		zap.Int("skills", len(tax.Skills())),
	)
	return analyzer, release, nil
}

// newFetcher returns nil when no bucket is configured.
func newFetcher(ctx context.Context, config *Config, log *zap.Logger) (storage.Fetcher, error) {
	s3cfg := config.Storage.S3
	if strings.TrimSpace(s3cfg.Bucket) == "" {
		return nil, nil
	}

	accessKey, err := secrets.LoadOptional(secrets.Source{Name: "s3 access key", Value: s3cfg.AccessKey, File: s3cfg.AccessKeyFile})
	if err != nil {
		return nil, err
	}
	secretKey, err := secrets.LoadOptional(secrets.Source{Name: "s3 secret key", Value: s3cfg.SecretKey, File: s3cfg.SecretKeyFile})
	if err != nil {
		return nil, err
	}

	fetcher, err := storage.NewS3(ctx, storage.S3Config{
		Bucket:    s3cfg.Bucket,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		PathStyle: s3cfg.PathStyle,
		MaxBytes:  config.Queue.MaxDocumentBytes,
	}, log.With(zap.String("bucket", s3cfg.Bucket)))
	if err != nil {
		return nil, err
	}
	return fetcher, nil
}
