package cmd

import (
	"time"

	"github.com/spf13/viper"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/gemini"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/onnx"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding/openai"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/queue"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/server"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/storage"
)

type Config struct {
	TaxonomyFile string         `mapstructure:"taxonomy-file"`
	Embedder     EmbedderConfig `mapstructure:"embedder"`
	Server       ServerConfig   `mapstructure:"server"`
	Storage      StorageConfig  `mapstructure:"storage"`
	Queue        QueueConfig    `mapstructure:"queue"`
}

type EmbedderConfig struct {
	Type      string       `mapstructure:"type"`
	Dimension int          `mapstructure:"dimension"`
	Cache     bool         `mapstructure:"cache"`
	CacheSize int          `mapstructure:"cache-size"`
	ONNX      ONNXConfig   `mapstructure:"onnx"`
	OpenAI    OpenAIConfig `mapstructure:"openai"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

type ONNXConfig struct {
	LibraryPath   string `mapstructure:"library-path"`
	ModelPath     string `mapstructure:"model-path"`
	TokenizerPath string `mapstructure:"tokenizer-path"`
	MaxSeqLen     int    `mapstructure:"max-seq-len"`
}

type OpenAIConfig struct {
	BaseURL    string        `mapstructure:"base-url"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	APIKeyEnv  string        `mapstructure:"api-key-env"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max-retries"`
}

type GeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	APIKeyEnv  string `mapstructure:"api-key-env"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type ServerConfig struct {
	Address        string          `mapstructure:"address"`
	AllowedOrigins []string        `mapstructure:"allowed-origins"`
	MaxUploadBytes int             `mapstructure:"max-upload-bytes"`
	RateLimit      RateLimitConfig `mapstructure:"rate-limit"`
}

type RateLimitConfig struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	PathStyle     bool   `mapstructure:"path-style"`
	AccessKey     string `mapstructure:"access-key"`
	AccessKeyFile string `mapstructure:"access-key-file"`
	SecretKey     string `mapstructure:"secret-key"`
	SecretKeyFile string `mapstructure:"secret-key-file"`
}

type QueueConfig struct {
	URL              string `mapstructure:"url"`
	URLFile          string `mapstructure:"url-file"`
	URLEnv           string `mapstructure:"url-env"`
	Name             string `mapstructure:"name"`
	Exchange         string `mapstructure:"exchange"`
	Workers          int    `mapstructure:"workers"`
	MaxDocumentBytes int64  `mapstructure:"max-document-bytes"`
}

// setDefaults registers every key so that MATCHER_* variables are picked up
// by Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"taxonomy-file": "",

		"embedder.type":       "hashing",
		"embedder.dimension":  embedding.DefaultDimension,
		"embedder.cache":      false,
		"embedder.cache-size": 1024,

		"embedder.onnx.library-path":   "",
		"embedder.onnx.model-path":     "",
		"embedder.onnx.tokenizer-path": "",
		"embedder.onnx.max-seq-len":    onnx.DefaultMaxSeqLen,

		"embedder.openai.base-url":     openai.DefaultBaseURL,
		"embedder.openai.model":        openai.DefaultModel,
		"embedder.openai.api-key":      "",
		"embedder.openai.api-key-file": "",
		"embedder.openai.api-key-env":  "OPENAI_API_KEY",
		"embedder.openai.timeout":      30 * time.Second,
		"embedder.openai.max-retries":  3,

		"embedder.gemini.model":        gemini.DefaultModel,
		"embedder.gemini.api-key":      "",
		"embedder.gemini.api-key-file": "",
		"embedder.gemini.api-key-env":  "GEMINI_API_KEY",
		"embedder.gemini.max-retries":  3,

		"server.address":           server.DefaultAddress,
		"server.allowed-origins":   server.DefaultAllowedOrigins,
		"server.max-upload-bytes":  server.DefaultMaxUploadBytes,
		"server.rate-limit.max":    server.DefaultRateLimitMax,
		"server.rate-limit.window": server.DefaultRateLimitSpan,

		"storage.s3.bucket":          "",
		"storage.s3.region":          storage.DefaultRegion,
		"storage.s3.endpoint":        "",
		"storage.s3.path-style":      false,
		"storage.s3.access-key":      "",
		"storage.s3.access-key-file": "",
		"storage.s3.secret-key":      "",
		"storage.s3.secret-key-file": "",

		"queue.url":                "",
		"queue.url-file":           "",
		"queue.url-env":            "RABBITMQ_URL",
		"queue.name":               queue.DefaultQueue,
		"queue.exchange":           queue.DefaultExchange,
		"queue.workers":            queue.DefaultWorkers,
		"queue.max-document-bytes": storage.DefaultMaxBytes,
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
