package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/utils"
)

const (
	DefaultRegion   = "auto"
	DefaultMaxBytes = 10 << 20

	fetchAttempts = 3
	fetchBackoff  = 500 * time.Millisecond
)

var (
	ErrNotFound = errors.New("object not found")
	ErrTooLarge = errors.New("object too large")
)

// Fetcher returns the raw bytes stored under key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PathStyle forces bucket-in-path addressing, needed by MinIO.
	PathStyle bool
	MaxBytes  int64
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 fetches documents from an S3 compatible bucket (AWS, R2, MinIO).
type S3 struct {
	client   objectGetter
	bucket   string
	maxBytes int64
	backoff  time.Duration
	log      *zap.Logger
}

func NewS3(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return newS3(client, cfg.Bucket, cfg.MaxBytes, log), nil
}

func newS3(client objectGetter, bucket string, maxBytes int64, log *zap.Logger) *S3 {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &S3{client: client, bucket: bucket, maxBytes: maxBytes, backoff: fetchBackoff, log: log}
}

// Fetch downloads the object stored under key. Missing objects and objects
// larger than the configured limit are not retried.
func (s *S3) Fetch(ctx context.Context, key string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: empty key", ErrNotFound)
	}

	var data []byte
	err := utils.Retry(ctx, fetchAttempts, s.backoff, func() error {
		var err error
		data, err = s.get(ctx, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTooLarge) || ctx.Err() != nil {
			return utils.Permanent(err)
		}
		s.log.Warn("fetch attempt failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("object fetched", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return data, nil
}

func (s *S3) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, *out.ContentLength, s.maxBytes)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(out.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	if n > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}

	return buf.Bytes(), nil
}
