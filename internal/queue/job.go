package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/storage"
)

var (
	ErrInvalidJob = errors.New("invalid job")
	ErrNoStorage  = errors.New("document storage is not configured")
)

// DocumentRef points at one side of an analysis: inline text or an object key.
// When both are set the stored object wins.
type DocumentRef struct {
	Text     *string `json:"text,omitempty"`
	Key      string  `json:"key"`
	MIME     string  `json:"mime"`
	Filename string  `json:"filename"`
}

type Job struct {
	ID     string      `json:"id"`
	Resume DocumentRef `json:"resume"`
	JD     DocumentRef `json:"jd"`
}

// DecodeJob parses a message body. Scalars are weakly typed so numeric ids
// are accepted, and a missing id is replaced by a fresh uuid.
func DecodeJob(body []byte) (*Job, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidJob)
	}

	job := &Job{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           job,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	job.ID = strings.TrimSpace(job.ID)
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Resume.Key = strings.TrimSpace(job.Resume.Key)
	job.JD.Key = strings.TrimSpace(job.JD.Key)

	return job, nil
}

// Input resolves the reference into an analyzer input, downloading stored
// documents through fetcher. A reference with neither text nor key yields an
// empty input which the analyzer rejects.
func (r DocumentRef) Input(ctx context.Context, fetcher storage.Fetcher) (matcher.Input, error) {
	if r.Key == "" {
		if r.Text == nil {
			return matcher.Input{}, nil
		}
		return matcher.TextInput(*r.Text), nil
	}

	if fetcher == nil {
		return matcher.Input{}, ErrNoStorage
	}

	data, err := fetcher.Fetch(ctx, r.Key)
	if err != nil {
		return matcher.Input{}, err
	}

	name := r.Filename
	if name == "" {
		name = r.Key
	}

	var doc *document.Document
	if r.MIME != "" {
		doc, err = document.NewWithMIME(name, r.MIME, data)
	} else {
		doc, err = document.New(name, data)
	}
	if err != nil {
		return matcher.Input{}, err
	}

	return matcher.DocumentInput(doc), nil
}
