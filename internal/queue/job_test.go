package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/storage"
)

type fakeFetcher struct {
	objects map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func strPtr(s string) *string { return &s }

func TestDecodeJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		check  func(t *testing.T, job *Job)
		target error
	}{
		{
			name: "inline text",
			body: `{"id":"job-1","resume":{"text":"Go"},"jd":{"text":"Go and SQL"}}`,
			check: func(t *testing.T, job *Job) {
				if job.ID != "job-1" || job.Resume.Text == nil || *job.Resume.Text != "Go" || job.JD.Text == nil || *job.JD.Text != "Go and SQL" {
					t.Fatalf("unexpected job: %+v", job)
				}
			},
		},
		{
			name: "stored documents",
			body: `{"id":"job-2","resume":{"key":" cv/1.pdf ","mime":"application/pdf"},"jd":{"key":"jd/1","filename":"jd.docx"}}`,
			check: func(t *testing.T, job *Job) {
				if job.Resume.Key != "cv/1.pdf" || job.Resume.MIME != "application/pdf" {
					t.Fatalf("unexpected resume ref: %+v", job.Resume)
				}
				if job.JD.Filename != "jd.docx" {
					t.Fatalf("unexpected jd ref: %+v", job.JD)
				}
			},
		},
		{
			name: "numeric id is weakly typed",
			body: `{"id":42,"resume":{"text":"a"},"jd":{"text":"b"}}`,
			check: func(t *testing.T, job *Job) {
				if job.ID != "42" {
					t.Fatalf("expected id 42, got %q", job.ID)
				}
			},
		},
		{
			name: "missing id gets a uuid",
			body: `{"resume":{"text":"a"},"jd":{"text":"b"}}`,
			check: func(t *testing.T, job *Job) {
				if _, err := uuid.Parse(job.ID); err != nil {
					t.Fatalf("expected generated uuid, got %q", job.ID)
				}
			},
		},
		{name: "not json", body: `resume please`, target: ErrInvalidJob},
		{name: "null body", body: `null`, target: ErrInvalidJob},
		{name: "wrong shape", body: `{"resume":"just a string"}`, target: ErrInvalidJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job, err := DecodeJob([]byte(tt.body))
			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Fatalf("expected %v, got %v", tt.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJob returned error: %v", err)
			}
			tt.check(t, job)
		})
	}
}

func TestDocumentRefInput(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{objects: map[string][]byte{
		"cv/jane":     []byte("Go developer"),
		"cv/jane.txt": []byte("Go developer"),
	}}

	tests := []struct {
		name     string
		ref      DocumentRef
		fetcher  storage.Fetcher
		format   document.Format
		text     string
		provided bool
		target   error
	}{
		{name: "inline text", ref: DocumentRef{Text: strPtr("SQL")}, text: "SQL"},
		{name: "empty inline text is provided", ref: DocumentRef{Text: strPtr("")}, provided: true},
		{name: "empty ref", ref: DocumentRef{}},
		{name: "typed by mime", ref: DocumentRef{Key: "cv/jane", MIME: "text/plain"}, fetcher: fetcher, format: document.FormatPlainText},
		{name: "typed by filename", ref: DocumentRef{Key: "cv/jane", Filename: "jane.txt"}, fetcher: fetcher, format: document.FormatPlainText},
		{name: "typed by key", ref: DocumentRef{Key: "cv/jane.txt"}, fetcher: fetcher, format: document.FormatPlainText},
		{name: "key wins over text", ref: DocumentRef{Key: "cv/jane.txt", Text: strPtr("ignored")}, fetcher: fetcher, format: document.FormatPlainText},
		{name: "untyped key", ref: DocumentRef{Key: "cv/jane"}, fetcher: fetcher, target: document.ErrUnsupportedFormat},
		{name: "unknown mime", ref: DocumentRef{Key: "cv/jane", MIME: "image/png"}, fetcher: fetcher, target: document.ErrUnsupportedFormat},
		{name: "missing object", ref: DocumentRef{Key: "cv/nobody.txt"}, fetcher: fetcher, target: storage.ErrNotFound},
		{name: "no storage", ref: DocumentRef{Key: "cv/jane.txt"}, target: ErrNoStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in, err := tt.ref.Input(context.Background(), tt.fetcher)
			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Fatalf("expected %v, got %v", tt.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Input returned error: %v", err)
			}

			if tt.format != "" {
				if in.Document == nil || in.Document.Format != tt.format || in.Text != "" {
					t.Fatalf("expected a %s document, got %+v", tt.format, in)
				}
				return
			}
			if in.Document != nil || in.Text != tt.text {
				t.Fatalf("unexpected input %+v", in)
			}
			if provided := in.Validate() == nil; provided != (tt.text != "" || tt.provided) {
				t.Fatalf("expected provided=%v, got %v", tt.text != "" || tt.provided, provided)
			}
		})
	}
}
