package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
)

const (
	// FieldProvider is the structured log field key for the embedding provider.
	FieldProvider = "embedder_provider"
	// FieldModel is the structured log field key for the embedding model.
	FieldModel = "embedder_model"
	// FieldRequestID correlates log entries of one HTTP request or queue job.
	FieldRequestID = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when
// logger is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the embedding provider and model. Empty values are
// skipped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ReportFields summarizes a match report for a single log entry.
func ReportFields(r *report.MatchReport) []zap.Field {
	if r == nil {
		return nil
	}

	return []zap.Field{
		zap.String("overall_match", string(r.Analysis.OverallMatch)),
		zap.Float64("match_percentage", r.MatchPercentage),
		zap.Float64("similarity_score", r.SimilarityScore),
		zap.Int("resume_skills", r.ResumeSkills.Len()),
		zap.Int("jd_skills", r.JDSkills.Len()),
		zap.Int("matching_skills", r.MatchingSkills.Len()),
		zap.Int("missing_skills", r.MissingSkills.Len()),
		zap.Int("resume_length", r.ResumeLength),
		zap.Int("jd_length", r.JDLength),
	}
}
