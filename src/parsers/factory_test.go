package parsers

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestGetParser(t *testing.T) {
	parser, err := GetParser(models.SourcePDF)
	require.NoError(t, err)
	assert.NotNil(t, parser)

	for _, source := range []models.SourceType{models.SourceImage, models.SourceEmail, models.SourceManual, "BOGUS"} {
		_, err := GetParser(source)
		require.Error(t, err, string(source))
		assert.True(t, errors.Is(err, ErrUnsupportedSource), string(source))
	}
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	parser := NewPDFParser()
	_, err := parser.Parse(bytes.NewReader([]byte("this is not a pdf document")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParsingFailed))
}

func TestPDFParserRejectsEmptyInput(t *testing.T) {
	parser := NewPDFParser()
	_, err := parser.Parse(bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParsingFailed))
}
