package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/report"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/storage"
)

type Analyzer interface {
	Analyze(ctx context.Context, resume, jd matcher.Input) (*report.MatchReport, error)
}

// Processor turns a raw job message into a result.
type Processor struct {
	analyzer Analyzer
	fetcher  storage.Fetcher
	log      *zap.Logger
	now      func() time.Time
}

// NewProcessor builds a processor. fetcher may be nil when every job carries
// inline text.
func NewProcessor(analyzer Analyzer, fetcher storage.Fetcher, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{analyzer: analyzer, fetcher: fetcher, log: log, now: time.Now}
}

// Process never returns nil. Failures are reported in the result.
func (p *Processor) Process(ctx context.Context, body []byte) *Result {
	job, err := DecodeJob(body)
	if err != nil {
		id := strings.TrimSpace(gjson.GetBytes(body, "id").String())
		if id == "" {
			id = uuid.NewString()
		}
		return p.fail(id, err)
	}

	log := p.log.With(zap.String("job_id", job.ID))
	log.Debug("processing job", zap.String("resume_key", job.Resume.Key), zap.String("jd_key", job.JD.Key))

	resume, err := job.Resume.Input(ctx, p.fetcher)
	if err != nil {
		return p.fail(job.ID, fmt.Errorf("resume: %w", err))
	}
	jd, err := job.JD.Input(ctx, p.fetcher)
	if err != nil {
		return p.fail(job.ID, fmt.Errorf("job description: %w", err))
	}

	r, err := p.analyzer.Analyze(ctx, resume, jd)
	if err != nil {
		return p.fail(job.ID, err)
	}

	log.Info("job completed", logger.ReportFields(r)...)
	return &Result{JobID: job.ID, Status: StatusCompleted, Report: r, Timestamp: p.now().UTC()}
}

func (p *Processor) fail(id string, err error) *Result {
	p.log.Warn("job failed", zap.String("job_id", id), zap.Error(err))
	return &Result{JobID: id, Status: StatusFailed, Error: err.Error(), Timestamp: p.now().UTC()}
}
