package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
)

const (
	requestIDKey    = "request_id"
	headerRequestID = "X-Request-ID"
)

// requestLogger tags each request with an id, echoed in X-Request-ID, and
// logs one entry when the handler chain returns.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(headerRequestID, id)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Write the error response here so the logged status is final.
			if herr := s.handleError(c, err); herr != nil {
				return herr
			}
		}

		s.logger.Debug("http request",
			zap.String(logger.FieldRequestID, id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)

		return nil
	}
}
