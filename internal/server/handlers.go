package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/similarity"
)

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Embedder    string `json:"embedder,omitempty"`
}

// analyzeRequest uses pointers so an absent field differs from "".
type analyzeRequest struct {
	ResumeText *string `json:"resume_text" form:"resume_text"`
	JDText     *string `json:"jd_text" form:"jd_text"`
}

func textInput(text *string) matcher.Input {
	if text == nil {
		return matcher.Input{}
	}
	return matcher.TextInput(*text)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:      "healthy",
		ModelLoaded: s.analyzer.Ready(),
		Embedder:    s.analyzer.EmbedderName(),
	})
}

func (s *Server) analyze(c *fiber.Ctx) error {
	resume, jd, err := s.inputs(c)
	if err != nil {
		return err
	}

	r, err := s.analyzer.Analyze(c.UserContext(), resume, jd)
	if err != nil {
		return err
	}

	return c.JSON(r)
}

// inputs reads the request as multipart form data or JSON. An uploaded file
// takes precedence over text for the same side.
func (s *Server) inputs(c *fiber.Ctx) (matcher.Input, matcher.Input, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		var req analyzeRequest
		if len(c.Body()) == 0 {
			return matcher.Input{}, matcher.Input{}, fmt.Errorf("resume: %w", matcher.ErrMissingInput)
		}
		if err := c.BodyParser(&req); err != nil {
			return matcher.Input{}, matcher.Input{}, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return textInput(req.ResumeText), textInput(req.JDText), nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return matcher.Input{}, matcher.Input{}, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form: "+err.Error())
	}

	resume, err := formInput(form, "resume_file", "resume_text")
	if err != nil {
		return matcher.Input{}, matcher.Input{}, fmt.Errorf("resume: %w", err)
	}

	jd, err := formInput(form, "jd_file", "jd_text")
	if err != nil {
		return matcher.Input{}, matcher.Input{}, fmt.Errorf("job description: %w", err)
	}

	return resume, jd, nil
}

func formInput(form *multipart.Form, fileField, textField string) (matcher.Input, error) {
	if files := form.File[fileField]; len(files) > 0 && files[0] != nil {
		doc, err := readUpload(files[0])
		if err != nil {
			return matcher.Input{}, err
		}
		return matcher.DocumentInput(doc), nil
	}

	if values := form.Value[textField]; len(values) > 0 {
		return matcher.TextInput(values[0]), nil
	}

	return matcher.Input{}, nil
}

func readUpload(fh *multipart.FileHeader) (*document.Document, error) {
	format, err := document.FormatFromFilename(fh.Filename)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}

	return &document.Document{Name: fh.Filename, Format: format, Data: data}, nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)

	log := s.logger.With(zap.Int("status", code), zap.String("path", c.Path()), zap.Error(err))
	if id, ok := c.Locals(requestIDKey).(string); ok {
		log = log.With(zap.String(logger.FieldRequestID, id))
	}
	if code >= fiber.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Info("request rejected")
	}

	return c.Status(code).JSON(errorResponse{Detail: err.Error()})
}

// statusFor maps errors onto HTTP status codes. Bad input, including text the
// model refused, is 400 and an unavailable model is 503. Anything else is 500.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, matcher.ErrMissingInput),
		errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, document.ErrCorruptDocument),
		errors.Is(err, document.ErrDecode),
		errors.Is(err, embedding.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, similarity.ErrScorerUnavailable),
		errors.Is(err, embedding.ErrModelUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
