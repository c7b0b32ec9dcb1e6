package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format tags the encoding of a Document's raw bytes.
type Format string

const (
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatPlainText Format = "plain-text"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

var extensions = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".txt":  FormatPlainText,
}

// SupportedExtensions lists the file extensions accepted by FormatFromFilename.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// FormatFromFilename infers the format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if format, ok := extensions[ext]; ok {
		return format, nil
	}

	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// FormatFromMIME maps a declared content type to a format. Parameters such as
// charset are ignored.
func FormatFromMIME(mime string) (Format, error) {
	base, _, _ := strings.Cut(mime, ";")
	switch strings.ToLower(strings.TrimSpace(base)) {
	case mimePDF:
		return FormatPDF, nil
	case mimeDOCX:
		return FormatDOCX, nil
	case mimeText:
		return FormatPlainText, nil
	default:
		return "", fmt.Errorf("%w: mime type %q", ErrUnsupportedFormat, mime)
	}
}

func (f Format) String() string { return string(f) }

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatPlainText:
		return true
	default:
		return false
	}
}
