package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/username/cardfolio/backend/src/async"
	"github.com/username/cardfolio/backend/src/config"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/model"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/parsers"
	"github.com/username/cardfolio/backend/src/parsers/statement"
	"github.com/username/cardfolio/backend/src/processors"
	"github.com/username/cardfolio/backend/src/storage"
	"github.com/username/cardfolio/backend/src/utils"
)

type importServiceImpl struct {
	db             *sql.DB
	fileStore      *storage.FileStore
	reconciler     *processors.Reconciler
	emailService   EmailService
	invoiceService InvoiceService
	queue          *async.ImportQueue

	// invoiceLocks serializes reconciliation per card+month so two jobs
	// for the same invoice never interleave their duplicate checks.
	locksMu      sync.Mutex
	invoiceLocks map[string]*sync.Mutex

	confidenceThreshold float64
	getParser           func(models.SourceType) (parsers.StatementParser, error)
	now                 func() time.Time
}

func NewImportService(db *sql.DB, fileStore *storage.FileStore, emailService EmailService, invoiceService InvoiceService) ImportService {
	s := &importServiceImpl{
		db:                  db,
		fileStore:           fileStore,
		reconciler:          processors.NewReconciler(processors.IsFeeLike),
		emailService:        emailService,
		invoiceService:      invoiceService,
		invoiceLocks:        make(map[string]*sync.Mutex),
		confidenceThreshold: config.Cfg.ConfidenceThreshold,
		getParser:           parsers.GetParser,
		now:                 time.Now,
	}
	s.queue = async.NewImportQueue(s.ProcessJob,
		async.WithWorkers(config.Cfg.ImportWorkers),
		async.WithQueueSize(config.Cfg.ImportQueueSize),
		async.WithProcessTimeout(config.Cfg.ImportTimeout),
	)
	return s
}

// SubmitImport validates card ownership, stores the raw upload, creates
// the PENDING job and hands it to the async queue. The returned job is
// what the client polls on.
func (s *importServiceImpl) SubmitImport(file io.Reader, fileName string, cardID, userID int64) (*models.ImportJob, error) {
	if _, err := model.GetCardForUser(s.db, cardID, userID); err != nil {
		if errors.Is(err, model.ErrCardNotFound) {
			return nil, fmt.Errorf("%w: card %d does not belong to user %d", ErrValidationFailed, cardID, userID)
		}
		return nil, fmt.Errorf("validating card %d: %w", cardID, err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file %s: %w", fileName, err)
	}

	storedPath, err := s.fileStore.Write(data, fileName)
	if err != nil {
		return nil, fmt.Errorf("storing uploaded file %s: %w", fileName, err)
	}

	job := &models.ImportJob{
		ID:               uuid.NewString(),
		UserID:           userID,
		CardID:           cardID,
		Source:           models.ClassifySource(fileName),
		OriginalFileName: fileName,
		StoredFilePath:   storedPath,
		Status:           models.StatusPending,
		SubmittedAt:      s.now(),
	}
	if err := model.InsertImportJob(s.db, job); err != nil {
		return nil, fmt.Errorf("creating import job: %w", err)
	}

	logger.L.Info("Import job created", "jobId", job.ID, "userID", userID, "cardID", cardID,
		"source", job.Source, "fileName", fileName)

	// Manual imports are entered by the user, never parsed.
	if job.Source != models.SourceManual {
		s.queue.Enqueue(job.ID)
	}
	return job, nil
}

// ProcessJob is the async queue's worker entry point. All failures end
// in a terminal job status; nothing here propagates errors upward.
func (s *importServiceImpl) ProcessJob(ctx context.Context, jobID string) {
	claimed, err := model.MarkJobProcessing(s.db, jobID)
	if err != nil {
		logger.L.Error("Failed to claim import job", "jobId", jobID, "error", err)
		return
	}
	if !claimed {
		// Already claimed or terminal; duplicate queue delivery.
		logger.L.Debug("Import job not in PENDING state, skipping", "jobId", jobID)
		return
	}

	job, err := model.GetImportJob(s.db, jobID)
	if err != nil {
		logger.L.Error("Failed to load claimed import job", "jobId", jobID, "error", err)
		return
	}
	s.runJob(ctx, job)
}

func (s *importServiceImpl) runJob(ctx context.Context, job *models.ImportJob) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("Panic while processing import job", "jobId", job.ID, "panic", r)
			s.failJob(job, fmt.Sprintf("internal error while processing statement: %v", r))
		}
	}()

	parser, err := s.getParser(job.Source)
	if err != nil {
		s.failJob(job, err.Error())
		return
	}

	data, err := s.fileStore.Read(job.StoredFilePath)
	if err != nil {
		s.failJob(job, fmt.Sprintf("stored statement file could not be read: %v", err))
		return
	}

	result, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		s.failJob(job, err.Error())
		return
	}
	if ctx.Err() != nil {
		s.failJob(job, fmt.Sprintf("processing aborted: %v", ctx.Err()))
		return
	}

	metadataBlob, err := json.Marshal(result.Metadata)
	if err != nil {
		s.failJob(job, fmt.Sprintf("serializing parsed metadata: %v", err))
		return
	}
	job.ParsedMetadata = metadataBlob
	job.TotalAmount = result.Metadata.TotalAmount
	job.DueDate = result.Metadata.DueDate
	job.BankName = result.Metadata.BankName
	job.CardLastFourDigits = result.Metadata.CardLastFourDigits

	if result.Confidence < s.confidenceThreshold {
		logger.L.Info("Import confidence below threshold, flagging for manual review",
			"jobId", job.ID, "confidence", result.Confidence, "threshold", s.confidenceThreshold)
		job.Status = models.StatusManualReview
		s.finalizeJob(job)
		if err := s.emailService.SendManualReviewAlert(job.ID, job.OriginalFileName, job.BankName); err != nil {
			logger.L.Error("Failed to send manual review alert", "jobId", job.ID, "error", err)
		}
		return
	}

	invoice, reconcileErr := s.reconcile(job, result)
	if reconcileErr != nil {
		s.failJob(job, reconcileErr.Error())
		return
	}

	job.InvoiceID = &invoice.ID
	job.Status = models.StatusCompleted
	s.finalizeJob(job)
	s.invoiceService.InvalidateUserCache(job.UserID)
}

// reconcile folds the parsed candidates into the card's invoice for the
// statement month, creating the invoice when it does not exist yet.
func (s *importServiceImpl) reconcile(job *models.ImportJob, result *statement.Result) (*models.Invoice, error) {
	today := utils.Truncate(s.now())
	invoiceMonth := s.resolveInvoiceMonth(result.Metadata, today)

	lock := s.lockFor(job.CardID, invoiceMonth)
	lock.Lock()
	defer lock.Unlock()

	invoice, err := model.FindInvoiceByCardAndMonth(s.db, job.CardID, invoiceMonth)
	if err != nil {
		if !errors.Is(err, model.ErrInvoiceNotFound) {
			return nil, fmt.Errorf("loading invoice for card %d month %s: %w", job.CardID, invoiceMonth, err)
		}
		invoice = &models.Invoice{
			CardID:       job.CardID,
			InvoiceMonth: invoiceMonth,
			DueDate:      result.Metadata.DueDate,
		}
		if err := model.CreateInvoice(s.db, invoice); err != nil {
			return nil, fmt.Errorf("creating invoice for card %d month %s: %w", job.CardID, invoiceMonth, err)
		}
	}
	if invoice.DueDate == "" {
		invoice.DueDate = result.Metadata.DueDate
	}

	recon := s.reconciler.AddItems(invoice, result.Items, today)
	if err := model.SaveInvoice(s.db, invoice); err != nil {
		return nil, fmt.Errorf("saving invoice %d: %w", invoice.ID, err)
	}

	logger.L.Info("Import job reconciled into invoice", "jobId", job.ID, "invoiceId", invoice.ID,
		"invoiceMonth", invoiceMonth, "added", recon.Added, "skipped", recon.Skipped)
	return invoice, nil
}

// resolveInvoiceMonth prefers the month printed on the statement, then
// the due date's month, then the current month.
func (s *importServiceImpl) resolveInvoiceMonth(md models.StatementMetadata, today time.Time) string {
	if md.InvoiceMonth != "" {
		return md.InvoiceMonth
	}
	if md.DueDate != "" {
		if due, err := time.Parse(utils.ISODateFormat, md.DueDate); err == nil {
			return due.Format(utils.MonthFormat)
		}
	}
	return today.Format(utils.MonthFormat)
}

func (s *importServiceImpl) lockFor(cardID int64, invoiceMonth string) *sync.Mutex {
	key := fmt.Sprintf("%d|%s", cardID, invoiceMonth)
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.invoiceLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.invoiceLocks[key] = lock
	}
	return lock
}

func (s *importServiceImpl) failJob(job *models.ImportJob, message string) {
	if message == "" {
		message = "statement processing failed"
	}
	logger.L.Warn("Import job failed", "jobId", job.ID, "error", message)
	job.Status = models.StatusFailed
	job.ErrorMessage = message
	s.finalizeJob(job)
}

func (s *importServiceImpl) finalizeJob(job *models.ImportJob) {
	processedAt := s.now()
	job.ProcessedAt = &processedAt
	if err := model.UpdateImportJobResult(s.db, job); err != nil {
		logger.L.Error("Failed to persist import job result", "jobId", job.ID,
			"status", job.Status, "error", err)
	}
}

// GetProgress returns the ownership-checked status view of one job.
func (s *importServiceImpl) GetProgress(jobID string, userID int64) (*ImportProgress, error) {
	job, err := model.GetImportJobForUser(s.db, jobID, userID)
	if err != nil {
		return nil, err
	}
	return &ImportProgress{
		ID:                 job.ID,
		Status:             job.Status,
		StatusMessage:      job.Status.Message(),
		SubmittedAt:        job.SubmittedAt,
		ProcessedAt:        job.ProcessedAt,
		ErrorMessage:       job.ErrorMessage,
		ParsedMetadata:     job.ParsedMetadata,
		TotalAmount:        job.TotalAmount,
		BankName:           job.BankName,
		CardLastFourDigits: job.CardLastFourDigits,
		NeedsManualReview:  job.Status == models.StatusManualReview,
	}, nil
}

func (s *importServiceImpl) ListImports(userID int64, status models.ImportStatus) ([]*models.ImportJob, error) {
	return model.ListImportJobs(s.db, userID, status)
}

// Shutdown drains the async queue, letting in-flight jobs finish.
func (s *importServiceImpl) Shutdown(ctx context.Context) {
	s.queue.Shutdown(ctx)
}
