package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/similarity"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/skills"
)

// ErrMissingInput is returned when an input has neither a document nor text,
// or has both.
var ErrMissingInput = errors.New("missing input")

const previewRunes = 80

// Input is either an uploaded document or raw text. The zero value carries
// neither.
type Input struct {
	Document *document.Document
	Text     string

	textSet bool
}

// TextInput marks text as provided even when it is empty, so blank text is
// scored rather than rejected.
func TextInput(text string) Input { return Input{Text: text, textSet: true} }

func DocumentInput(doc *document.Document) Input { return Input{Document: doc} }

// Validate checks that exactly one form is set. Empty or whitespace text built
// with TextInput counts as provided.
func (in Input) Validate() error {
	hasDoc := in.Document != nil
	hasText := in.textSet || in.Text != ""

	switch {
	case hasDoc && hasText:
		return fmt.Errorf("%w: provide either a file or text, not both", ErrMissingInput)
	case !hasDoc && !hasText:
		return fmt.Errorf("%w: provide a file or text", ErrMissingInput)
	default:
		return nil
	}
}

func (in Input) resolve() (string, error) {
	if in.Document != nil {
		return document.Extract(in.Document)
	}
	return in.Text, nil
}

// Analyzer runs the full matching pipeline. It is safe for concurrent use as
// long as its embedder is.
type Analyzer struct {
	recognizer *skills.Recognizer
	scorer     *similarity.Scorer
	logger     *zap.Logger
}

func New(recognizer *skills.Recognizer, scorer *similarity.Scorer, log *zap.Logger) (*Analyzer, error) {
	if recognizer == nil {
		return nil, errors.New("skill recognizer is required")
	}
	if scorer == nil {
		scorer = similarity.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Analyzer{
		recognizer: recognizer,
		scorer:     scorer,
		logger:     log,
	}, nil
}

// Ready reports whether the similarity model is configured.
func (a *Analyzer) Ready() bool { return a.scorer.Available() }

// EmbedderName names the configured embedder.
func (a *Analyzer) EmbedderName() string { return a.scorer.EmbedderName() }

// Recognizer exposes the skill recognizer for presentation layers.
func (a *Analyzer) Recognizer() *skills.Recognizer { return a.recognizer }

// Analyze compares a resume with a job description. Errors from extraction
// and scoring are returned as is, wrapped with the side they came from.
func (a *Analyzer) Analyze(ctx context.Context, resume, jd Input) (*report.MatchReport, error) {
	if err := resume.Validate(); err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if err := jd.Validate(); err != nil {
		return nil, fmt.Errorf("job description: %w", err)
	}

	start := time.Now()

	resumeText, err := resume.resolve()
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	jdText, err := jd.resolve()
	if err != nil {
		return nil, fmt.Errorf("job description: %w", err)
	}
	extracted := time.Since(start)

	a.logger.Debug("inputs resolved",
		zap.String("resume_preview", logger.Preview(resumeText, previewRunes)),
		zap.String("jd_preview", logger.Preview(jdText, previewRunes)),
		zap.Int("resume_length", len(resumeText)),
		zap.Int("jd_length", len(jdText)),
	)

	resumeSkills := a.recognizer.Recognize(resumeText)
	jdSkills := a.recognizer.Recognize(jdText)

	scoreStart := time.Now()
	sim, err := a.scorer.Score(ctx, resumeText, jdText)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}
	scored := time.Since(scoreStart)

	r := report.Build(report.Input{
		ResumeText:   resumeText,
		JDText:       jdText,
		ResumeSkills: resumeSkills,
		JDSkills:     jdSkills,
		Similarity:   sim,
	})

	fields := append(logger.ReportFields(r),
		zap.String("embedder", a.scorer.EmbedderName()),
		zap.Duration("extract_duration", extracted),
		zap.Duration("score_duration", scored),
		zap.Duration("total_duration", time.Since(start)),
	)
	a.logger.Info("analysis completed", fields...)

	return r, nil
}
