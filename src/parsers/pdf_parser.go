package parsers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/parsers/statement"
)

// ErrParsingFailed marks unreadable or corrupt documents.
var ErrParsingFailed = errors.New("failed to parse statement document")

// PDFParser extracts row-ordered plain text from a statement PDF and
// feeds it to the pattern extractor.
type PDFParser struct {
	extractor *statement.Extractor
}

func NewPDFParser() *PDFParser {
	return &PDFParser{extractor: statement.NewExtractor()}
}

func (p *PDFParser) Parse(file io.Reader) (*statement.Result, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading document: %v", ErrParsingFailed, err)
	}

	text, err := extractText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document contains no extractable text", ErrParsingFailed)
	}

	return p.extractor.Extract(text), nil
}

// extractText reconstructs line-oriented text from the PDF. The pdf
// library panics on some malformed documents, so the recover converts
// that into a normal parse error.
func extractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var lines []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			logger.L.Debug("Skipping unreadable pdf page", "page", i, "error", err)
			continue
		}
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
