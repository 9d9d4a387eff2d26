package validation

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cardfolio/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("application/pdf"))
	assert.NoError(t, ValidateClientContentType("APPLICATION/PDF"))
	assert.NoError(t, ValidateClientContentType("image/png"))
	assert.NoError(t, ValidateClientContentType("application/octet-stream"))

	assert.Error(t, ValidateClientContentType("text/html"))
	assert.Error(t, ValidateClientContentType("application/x-msdownload"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	pdf := bytes.NewReader([]byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj"))
	detected, err := ValidateFileContentByMagicBytes(pdf)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", detected)

	png := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n rest of file"))
	detected, err = ValidateFileContentByMagicBytes(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", detected)

	html := bytes.NewReader([]byte("<html><body>hi</body></html>"))
	_, err = ValidateFileContentByMagicBytes(html)
	assert.Error(t, err)
}

func TestValidateFileContentResetsReader(t *testing.T) {
	content := []byte("%PDF-1.4 full document body")
	r := bytes.NewReader(content)
	_, err := ValidateFileContentByMagicBytes(r)
	require.NoError(t, err)

	// The parser must still see the whole file afterwards.
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, rest)
}

func TestValidateFileContentNilFile(t *testing.T) {
	_, err := ValidateFileContentByMagicBytes(nil)
	assert.Error(t, err)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "fatura.pdf", SanitizeFileName("  fatura.pdf "))
	assert.Equal(t, "fatura.pdf", SanitizeFileName("../../etc/fatura.pdf"))
	assert.Equal(t, "", SanitizeFileName(".."))
	assert.Equal(t, "", SanitizeFileName(""))
	assert.NotContains(t, SanitizeFileName("a\\b\\fatura.pdf"), "\\")
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc def", StripUnprintable("abc\x00 \x07def"))
	assert.Equal(t, "line1\nline2", StripUnprintable("line1\nline2"))
}
