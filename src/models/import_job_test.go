package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySource(t *testing.T) {
	cases := []struct {
		fileName string
		want     SourceType
	}{
		{"fatura.pdf", SourcePDF},
		{"FATURA.PDF", SourcePDF},
		{"scan.png", SourceImage},
		{"scan.JPEG", SourceImage},
		{"notes.txt", SourceManual},
		{"extrato", SourceManual},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifySource(c.fileName), c.fileName)
	}
}

func TestImportStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusManualReview.IsTerminal())
}

func TestImportStatusMessage(t *testing.T) {
	for _, s := range []ImportStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusManualReview} {
		assert.NotEmpty(t, s.Message(), string(s))
	}
	assert.Equal(t, "Unknown import status.", ImportStatus("BOGUS").Message())
}
