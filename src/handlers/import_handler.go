package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/cardfolio/backend/src/config"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/model"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/security/validation"
	"github.com/username/cardfolio/backend/src/services"
	"github.com/username/cardfolio/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// HandleSubmitImport accepts a multipart statement upload and queues it
// for async processing. Responds 202 with the PENDING job.
func (h *ImportHandler) HandleSubmitImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	cardID, err := strconv.ParseInt(r.FormValue("card_id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Missing or invalid 'card_id' form field", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	fileName := validation.SanitizeFileName(fileHeader.Filename)
	if fileName == "" {
		utils.SendJSONError(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "userID", userID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "userID", userID, "filename", fileName, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("Statement upload validated", "userID", userID, "filename", fileName, "clientType", clientContentType, "detectedType", detectedContentType)

	job, err := h.importService.SubmitImport(file, fileName, cardID, userID)
	if err != nil {
		if errors.Is(err, services.ErrValidationFailed) {
			logger.L.Warn("Import submission rejected", "userID", userID, "cardID", cardID, "error", err)
			utils.SendJSONError(w, "Card not found or does not belong to you", http.StatusForbidden)
		} else {
			logger.L.Error("Internal error submitting import", "userID", userID, "filename", fileName, "error", err)
			utils.SendJSONError(w, "An internal error occurred while submitting the import. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, job, http.StatusAccepted)
}

// HandleGetImportProgress serves GET /api/imports/{id}.
func (h *ImportHandler) HandleGetImportProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	jobID := r.PathValue("id")
	if jobID == "" {
		utils.SendJSONError(w, "Missing import job id", http.StatusBadRequest)
		return
	}

	progress, err := h.importService.GetProgress(jobID, userID)
	if err != nil {
		if errors.Is(err, model.ErrImportJobNotFound) {
			utils.SendJSONError(w, "Import job not found", http.StatusNotFound)
		} else {
			logger.L.Error("Error retrieving import progress", "userID", userID, "jobId", jobID, "error", err)
			utils.SendJSONError(w, "Error retrieving import progress", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, progress, http.StatusOK)
}

// HandleListImports serves GET /api/imports, optionally filtered with
// ?status=.
func (h *ImportHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	status := models.ImportStatus(r.URL.Query().Get("status"))
	jobs, err := h.importService.ListImports(userID, status)
	if err != nil {
		logger.L.Error("Error listing import jobs", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving imports for userID %d", userID), http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*models.ImportJob{}
	}
	utils.SendJSON(w, jobs, http.StatusOK)
}
