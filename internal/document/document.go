package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for formats outside of pdf, docx and plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptDocument is returned when a parser fails in the middle of extraction.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrDecode is returned when plain text is not valid UTF-8.
	ErrDecode = errors.New("document is not valid utf-8")
)

// Document is an uploaded file: raw bytes plus its format tag.
type Document struct {
	Name   string
	Format Format
	Data   []byte
}

// New builds a Document whose format is inferred from the file name.
// Unsupported extensions are rejected before any extraction happens.
func New(name string, data []byte) (*Document, error) {
	format, err := FormatFromFilename(name)
	if err != nil {
		return nil, err
	}

	return &Document{Name: name, Format: format, Data: data}, nil
}

// NewWithMIME builds a Document typed by a declared content type.
func NewWithMIME(name, mime string, data []byte) (*Document, error) {
	format, err := FormatFromMIME(mime)
	if err != nil {
		return nil, err
	}

	return &Document{Name: name, Format: format, Data: data}, nil
}

// Extract converts the document into plain text.
func Extract(doc *Document) (string, error) {
	if doc == nil {
		return "", errors.New("document is required")
	}

	var (
		text string
		err  error
	)

	switch doc.Format {
	case FormatPDF:
		text, err = extractPDF(doc.Data)
	case FormatDOCX:
		text, err = extractDOCX(doc.Data)
	case FormatPlainText:
		text, err = extractPlainText(doc.Data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.Format)
	}

	if err != nil {
		if doc.Name != "" {
			return "", fmt.Errorf("%s: %w", doc.Name, err)
		}
		return "", err
	}

	return text, nil
}

// Extract is a convenience wrapper around the package level Extract.
func (d *Document) Extract() (string, error) {
	return Extract(d)
}
