package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cardfolio/backend/src/models"
)

var ErrImportJobNotFound = errors.New("import job not found")

const jobColumns = `id, user_id, card_id, source, original_file_name, stored_file_path, status,
	error_message, parsed_metadata, total_amount, due_date, bank_name, card_last_four_digits,
	invoice_id, submitted_at, processed_at`

// InsertImportJob creates the PENDING row for a freshly submitted
// import.
func InsertImportJob(db *sql.DB, job *models.ImportJob) error {
	_, err := db.Exec(
		`INSERT INTO import_jobs (id, user_id, card_id, source, original_file_name, stored_file_path, status, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.CardID, string(job.Source), job.OriginalFileName, job.StoredFilePath,
		string(job.Status), job.SubmittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting import job %s: %w", job.ID, err)
	}
	return nil
}

// GetImportJob loads a job regardless of owner. The async worker uses
// this; user-facing reads go through GetImportJobForUser.
func GetImportJob(db *sql.DB, jobID string) (*models.ImportJob, error) {
	row := db.QueryRow(`SELECT `+jobColumns+` FROM import_jobs WHERE id = ?`, jobID)
	return scanImportJob(row)
}

// GetImportJobForUser loads a job only if the user owns it. Jobs of
// other users look like missing jobs.
func GetImportJobForUser(db *sql.DB, jobID string, userID int64) (*models.ImportJob, error) {
	row := db.QueryRow(`SELECT `+jobColumns+` FROM import_jobs WHERE id = ? AND user_id = ?`, jobID, userID)
	return scanImportJob(row)
}

// ListImportJobs returns the user's jobs newest-first, optionally
// filtered by status.
func ListImportJobs(db *sql.DB, userID int64, status models.ImportStatus) ([]*models.ImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY submitted_at DESC, id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying import jobs for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over import job rows for userID %d: %w", userID, err)
	}
	return jobs, nil
}

// MarkJobProcessing transitions a PENDING job to PROCESSING. The
// status guard makes a duplicate queue delivery a no-op.
func MarkJobProcessing(db *sql.DB, jobID string) (bool, error) {
	res, err := db.Exec(
		`UPDATE import_jobs SET status = ? WHERE id = ? AND status = ?`,
		string(models.StatusProcessing), jobID, string(models.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("error marking job %s processing: %w", jobID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows for job %s: %w", jobID, err)
	}
	return affected == 1, nil
}

// UpdateImportJobResult writes the outcome of async processing:
// terminal status, error message, metadata blob, denormalized scalars
// and the invoice reference.
func UpdateImportJobResult(db *sql.DB, job *models.ImportJob) error {
	var totalAmount interface{}
	if job.TotalAmount != nil {
		totalAmount = job.TotalAmount.String()
	}
	var processedAt interface{}
	if job.ProcessedAt != nil {
		processedAt = job.ProcessedAt.Format(time.RFC3339Nano)
	}
	var metadata interface{}
	if len(job.ParsedMetadata) > 0 {
		metadata = string(job.ParsedMetadata)
	}
	_, err := db.Exec(
		`UPDATE import_jobs SET status = ?, error_message = ?, parsed_metadata = ?, total_amount = ?,
		 due_date = ?, bank_name = ?, card_last_four_digits = ?, invoice_id = ?, processed_at = ?
		 WHERE id = ?`,
		string(job.Status), nullableString(job.ErrorMessage), metadata, totalAmount,
		nullableString(job.DueDate), nullableString(job.BankName), nullableString(job.CardLastFourDigits),
		job.InvoiceID, processedAt, job.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating import job %s: %w", job.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImportJob(row rowScanner) (*models.ImportJob, error) {
	var job models.ImportJob
	var source, status string
	var errorMessage, metadata, totalAmount, dueDate, bankName, lastFour, submittedAt, processedAt sql.NullString
	var invoiceID sql.NullInt64

	err := row.Scan(&job.ID, &job.UserID, &job.CardID, &source, &job.OriginalFileName, &job.StoredFilePath,
		&status, &errorMessage, &metadata, &totalAmount, &dueDate, &bankName, &lastFour,
		&invoiceID, &submittedAt, &processedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImportJobNotFound
		}
		return nil, fmt.Errorf("error scanning import job row: %w", err)
	}

	job.Source = models.SourceType(source)
	job.Status = models.ImportStatus(status)
	job.ErrorMessage = errorMessage.String
	if metadata.Valid && metadata.String != "" {
		job.ParsedMetadata = []byte(metadata.String)
	}
	if totalAmount.Valid && totalAmount.String != "" {
		amount, err := decimal.NewFromString(totalAmount.String)
		if err != nil {
			return nil, fmt.Errorf("error parsing job total amount %q: %w", totalAmount.String, err)
		}
		job.TotalAmount = &amount
	}
	job.DueDate = dueDate.String
	job.BankName = bankName.String
	job.CardLastFourDigits = lastFour.String
	if invoiceID.Valid {
		id := invoiceID.Int64
		job.InvoiceID = &id
	}
	if submittedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, submittedAt.String); err == nil {
			job.SubmittedAt = t
		}
	}
	if processedAt.Valid && processedAt.String != "" {
		if t, err := time.Parse(time.RFC3339Nano, processedAt.String); err == nil {
			job.ProcessedAt = &t
		}
	}
	return &job, nil
}
