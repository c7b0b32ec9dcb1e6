package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
)

const (
	appName         = "resume-matcher"
	shutdownTimeout = 10 * time.Second

	DefaultAddress        = ":8000"
	DefaultMaxUploadBytes = 10 << 20
	DefaultRateLimitMax   = 60
	DefaultRateLimitSpan  = time.Minute
)

// DefaultAllowedOrigins is the local frontend served by the dev server.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Analyzer is the part of matcher.Analyzer the HTTP layer depends on.
type Analyzer interface {
	Analyze(ctx context.Context, resume, jd matcher.Input) (*report.MatchReport, error)
	Ready() bool
	EmbedderName() string
}

type Config struct {
	Address         string
	AllowedOrigins  []string
	MaxUploadBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = DefaultAddress
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = DefaultAllowedOrigins
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.RateLimitMax <= 0 {
		c.RateLimitMax = DefaultRateLimitMax
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = DefaultRateLimitSpan
	}
	return c
}

// Server exposes the analyzer over HTTP.
type Server struct {
	app      *fiber.App
	cfg      Config
	analyzer Analyzer
	logger   *zap.Logger
}

func New(cfg Config, analyzer Analyzer, log *zap.Logger) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	cfg = cfg.withDefaults()

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		BodyLimit:             cfg.MaxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(s.requestLogger())
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: !containsWildcard(cfg.AllowedOrigins),
	}))

	s.app.Get("/health", s.health)
	s.app.Post("/analyze", s.rateLimiter(), s.analyze)

	return s, nil
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		errCh <- s.app.Listen(s.cfg.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func (s *Server) rateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               s.cfg.RateLimitMax,
		Expiration:        s.cfg.RateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(errorResponse{Detail: "too many requests"})
		},
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
