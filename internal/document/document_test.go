package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestFormatFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		expect  Format
		wantErr bool
	}{
		{name: "pdf", input: "resume.pdf", expect: FormatPDF},
		{name: "upper case docx", input: "Resume.DOCX", expect: FormatDOCX},
		{name: "txt with path", input: "/tmp/jd/job.txt", expect: FormatPlainText},
		{name: "legacy doc", input: "resume.doc", wantErr: true},
		{name: "no extension", input: "resume", wantErr: true},
		{name: "markdown", input: "notes.md", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FormatFromFilename(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFormatFromMIME(t *testing.T) {
	t.Parallel()

	got, err := FormatFromMIME("text/plain; charset=utf-8")
	if err != nil || got != FormatPlainText {
		t.Fatalf("expected plain text, got %q (%v)", got, err)
	}

	got, err = FormatFromMIME("application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	if err != nil || got != FormatDOCX {
		t.Fatalf("expected docx, got %q (%v)", got, err)
	}

	if _, err := FormatFromMIME("image/png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNewRejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()

	doc, err := New("photo.png", []byte("not a resume"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document")
	}
}

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("  Senior Go engineer\nKubernetes, AWS \n\n")...)
	doc := &Document{Name: "resume.txt", Format: FormatPlainText, Data: data}

	first, err := Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != "Senior Go engineer\nKubernetes, AWS" {
		t.Fatalf("unexpected text: %q", first)
	}

	second, err := doc.Extract()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("extraction is not deterministic: %q != %q", first, second)
	}
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	t.Parallel()

	doc := &Document{Name: "resume.txt", Format: FormatPlainText, Data: []byte{'o', 'k', 0xff, 0xfe}}

	_, err := Extract(doc)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("decode error must be distinguishable from corrupt document")
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := Extract(&Document{Format: Format("rtf"), Data: []byte("{\\rtf1}")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractCorruptDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
	}{
		{name: "pdf", format: FormatPDF},
		{name: "docx", format: FormatDOCX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := &Document{Name: "broken." + tt.name, Format: tt.format, Data: []byte("definitely not a real file")}

			_, err := Extract(doc)
			if !errors.Is(err, ErrCorruptDocument) {
				t.Fatalf("expected ErrCorruptDocument, got %v", err)
			}
		})
	}
}

func TestExtractDOCX(t *testing.T) {
	t.Parallel()

	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Python </w:t></w:r><w:r><w:t>developer</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Docker</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

	doc := &Document{Name: "resume.docx", Format: FormatDOCX, Data: buildDOCX(t, body)}

	text, err := Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "Jane Doe\nPython developer\nSkills:\tDocker"
	if text != expected {
		t.Fatalf("expected %q, got %q", expected, text)
	}
}

func TestWordParagraphs(t *testing.T) {
	t.Parallel()

	body := `<w:document><w:body>` +
		`<w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:instrText>PAGE</w:instrText></w:r></w:p>` +
		`</w:body></w:document>`

	paragraphs, err := wordParagraphs(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %q", len(paragraphs), paragraphs)
	}
	if paragraphs[0] != "line one\nline two" {
		t.Fatalf("unexpected first paragraph: %q", paragraphs[0])
	}
	if paragraphs[1] != "cell" {
		t.Fatalf("unexpected table paragraph: %q", paragraphs[1])
	}
	if paragraphs[2] != "" {
		t.Fatalf("field instructions must not leak into text: %q", paragraphs[2])
	}
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}
