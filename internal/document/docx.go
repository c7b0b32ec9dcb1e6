package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read docx: %v", ErrCorruptDocument, err)
	}
	defer doc.Close()

	paragraphs, err := wordParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("%w: parse docx body: %v", ErrCorruptDocument, err)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

// wordParagraphs walks a WordprocessingML body and returns the text of every
// w:p element in document order.
func wordParagraphs(body string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(body))

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}

	if depth != 0 {
		return nil, errors.New("unbalanced paragraph elements")
	}

	return paragraphs, nil
}

func isWord(name xml.Name) bool {
	return name.Space == wordNamespace || name.Space == "w" || name.Space == ""
}
