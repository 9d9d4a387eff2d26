package parsers

import (
	"fmt"

	"github.com/username/cardfolio/backend/src/models"
)

// GetParser returns the parser for a source type. IMAGE and EMAIL
// have no implementation and MANUAL uploads are never auto-processed.
func GetParser(source models.SourceType) (StatementParser, error) {
	switch source {
	case models.SourcePDF:
		return NewPDFParser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}
