package parsers

import (
	"errors"
	"io"

	"github.com/username/cardfolio/backend/src/parsers/statement"
)

// ErrUnsupportedSource marks source types no parser exists for yet
// (images need OCR, email ingestion is not wired). Jobs hitting it
// fail cleanly instead of sitting in PROCESSING.
var ErrUnsupportedSource = errors.New("unsupported import source")

// StatementParser turns one uploaded statement document into the
// extraction result consumed by the reconciler.
type StatementParser interface {
	Parse(file io.Reader) (*statement.Result, error)
}
