package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cardfolio/backend/src/model"
	"github.com/username/cardfolio/backend/src/models"
)

// ErrValidationFailed marks submission-time failures (bad card
// ownership). No job row is ever created for these.
var ErrValidationFailed = errors.New("import validation failed")

// ImportProgress is the ownership-checked status view of one job.
type ImportProgress struct {
	ID                 string              `json:"id"`
	Status             models.ImportStatus `json:"status"`
	StatusMessage      string              `json:"statusMessage"`
	SubmittedAt        time.Time           `json:"submittedAt"`
	ProcessedAt        *time.Time          `json:"processedAt,omitempty"`
	ErrorMessage       string              `json:"errorMessage,omitempty"`
	ParsedMetadata     json.RawMessage     `json:"parsedMetadata,omitempty"`
	TotalAmount        *decimal.Decimal    `json:"totalAmount,omitempty"`
	BankName           string              `json:"bankName,omitempty"`
	CardLastFourDigits string              `json:"cardLastFourDigits,omitempty"`
	NeedsManualReview  bool                `json:"needsManualReview"`
}

// ImportService owns the whole import pipeline: submission, the async
// job lifecycle and the user-facing status reads.
type ImportService interface {
	SubmitImport(file io.Reader, fileName string, cardID, userID int64) (*models.ImportJob, error)
	ProcessJob(ctx context.Context, jobID string)
	GetProgress(jobID string, userID int64) (*ImportProgress, error)
	ListImports(userID int64, status models.ImportStatus) ([]*models.ImportJob, error)
	Shutdown(ctx context.Context)
}

// InvoiceService serves the read side of reconciled invoices.
type InvoiceService interface {
	ListInvoices(userID int64) ([]model.InvoiceSummary, error)
	InvalidateUserCache(userID int64)
}

// EmailService notifies a human when a job needs manual review.
type EmailService interface {
	SendManualReviewAlert(jobID, fileName, bankName string) error
}
