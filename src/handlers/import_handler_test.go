package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cardfolio/backend/src/model"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/services"
)

type stubImportService struct {
	job         *models.ImportJob
	submitErr   error
	progress    *services.ImportProgress
	progressErr error
	jobs        []*models.ImportJob
	listErr     error

	submittedFileName string
	submittedCardID   int64
	submittedUserID   int64
}

func (s *stubImportService) SubmitImport(file io.Reader, fileName string, cardID, userID int64) (*models.ImportJob, error) {
	s.submittedFileName = fileName
	s.submittedCardID = cardID
	s.submittedUserID = userID
	return s.job, s.submitErr
}

func (s *stubImportService) ProcessJob(ctx context.Context, jobID string) {}

func (s *stubImportService) GetProgress(jobID string, userID int64) (*services.ImportProgress, error) {
	return s.progress, s.progressErr
}

func (s *stubImportService) ListImports(userID int64, status models.ImportStatus) ([]*models.ImportJob, error) {
	return s.jobs, s.listErr
}

func (s *stubImportService) Shutdown(ctx context.Context) {}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userIDContextKey, userID))
}

func multipartUpload(t *testing.T, fieldValues map[string]string, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fieldValues {
		require.NoError(t, writer.WriteField(k, v))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestHandleSubmitImport(t *testing.T) {
	stub := &stubImportService{job: &models.ImportJob{
		ID:          "job-1",
		CardID:      7,
		Source:      models.SourcePDF,
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}}
	h := NewImportHandler(stub)

	body, contentType := multipartUpload(t, map[string]string{"card_id": "7"}, "fatura.pdf", "application/pdf", []byte("%PDF-1.4 content"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/imports", body), 1)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleSubmitImport(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var got models.ImportJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, models.StatusPending, got.Status)

	assert.Equal(t, "fatura.pdf", stub.submittedFileName)
	assert.Equal(t, int64(7), stub.submittedCardID)
	assert.Equal(t, int64(1), stub.submittedUserID)
}

func TestHandleSubmitImportRejectsMissingCardID(t *testing.T) {
	h := NewImportHandler(&stubImportService{})

	body, contentType := multipartUpload(t, nil, "fatura.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/imports", body), 1)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleSubmitImport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitImportRejectsDisallowedContentType(t *testing.T) {
	h := NewImportHandler(&stubImportService{})

	body, contentType := multipartUpload(t, map[string]string{"card_id": "7"}, "fatura.html", "text/html", []byte("<html></html>"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/imports", body), 1)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleSubmitImport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitImportMapsValidationFailure(t *testing.T) {
	h := NewImportHandler(&stubImportService{submitErr: services.ErrValidationFailed})

	body, contentType := multipartUpload(t, map[string]string{"card_id": "7"}, "fatura.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/imports", body), 1)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleSubmitImport(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSubmitImportRequiresAuth(t *testing.T) {
	h := NewImportHandler(&stubImportService{})
	req := httptest.NewRequest(http.MethodPost, "/api/imports", nil)
	rec := httptest.NewRecorder()
	h.HandleSubmitImport(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleGetImportProgress(t *testing.T) {
	progress := &services.ImportProgress{
		ID:            "job-1",
		Status:        models.StatusCompleted,
		StatusMessage: models.StatusCompleted.Message(),
	}
	h := NewImportHandler(&stubImportService{progress: progress})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/imports/{id}", h.HandleGetImportProgress)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/imports/job-1", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got services.ImportProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestHandleGetImportProgressNotFound(t *testing.T) {
	h := NewImportHandler(&stubImportService{progressErr: model.ErrImportJobNotFound})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/imports/{id}", h.HandleGetImportProgress)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/imports/ghost", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListImportsReturnsEmptyArray(t *testing.T) {
	h := NewImportHandler(&stubImportService{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/imports", nil), 1)
	rec := httptest.NewRecorder()
	h.HandleListImports(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
