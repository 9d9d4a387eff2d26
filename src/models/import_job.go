package models

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus is the canonical lifecycle status of an import job.
// Stored as the exact string in the import_jobs table.
type ImportStatus string

const (
	StatusPending      ImportStatus = "PENDING"
	StatusProcessing   ImportStatus = "PROCESSING"
	StatusCompleted    ImportStatus = "COMPLETED"
	StatusFailed       ImportStatus = "FAILED"
	StatusManualReview ImportStatus = "MANUAL_REVIEW"
)

// IsTerminal reports whether no further automatic transition exists.
// MANUAL_REVIEW is terminal for automation; a human takes over from there.
func (s ImportStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusManualReview
}

// Message returns the fixed user-facing description for a status.
func (s ImportStatus) Message() string {
	switch s {
	case StatusPending:
		return "Import received and queued for processing."
	case StatusProcessing:
		return "Statement is being processed."
	case StatusCompleted:
		return "Import completed and invoice updated."
	case StatusFailed:
		return "Import failed. Check the error message."
	case StatusManualReview:
		return "Extraction confidence too low. Manual review required."
	default:
		return "Unknown import status."
	}
}

// SourceType classifies where a statement came from.
type SourceType string

const (
	SourcePDF    SourceType = "PDF"
	SourceImage  SourceType = "IMAGE"
	SourceEmail  SourceType = "EMAIL"
	SourceManual SourceType = "MANUAL"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// ClassifySource derives the source type from the uploaded file name.
// Anything that is neither a PDF nor an image is treated as a manual
// entry and never auto-processed.
func ClassifySource(fileName string) SourceType {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case ext == ".pdf":
		return SourcePDF
	case imageExtensions[ext]:
		return SourceImage
	default:
		return SourceManual
	}
}

// ImportJob is one statement import request and its lifecycle state.
// Rows are created PENDING at upload, mutated only by the import
// service, and never deleted.
type ImportJob struct {
	ID                 string          `json:"id"`
	UserID             int64           `json:"-"`
	CardID             int64           `json:"cardId"`
	Source             SourceType      `json:"source"`
	OriginalFileName   string          `json:"originalFileName"`
	StoredFilePath     string          `json:"-"`
	Status             ImportStatus    `json:"status"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
	ParsedMetadata     json.RawMessage `json:"parsedMetadata,omitempty"`
	TotalAmount        *decimal.Decimal `json:"totalAmount,omitempty"`
	DueDate            string          `json:"dueDate,omitempty"` // ISO date, empty when unknown
	BankName           string          `json:"bankName,omitempty"`
	CardLastFourDigits string          `json:"cardLastFourDigits,omitempty"`
	InvoiceID          *int64          `json:"invoiceId,omitempty"`
	SubmittedAt        time.Time       `json:"submittedAt"`
	ProcessedAt        *time.Time      `json:"processedAt,omitempty"`
}
