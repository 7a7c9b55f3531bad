package handler

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/services"
	"codefolio/internal/httputil"
)

// FileHandler handles record HTTP requests
type FileHandler struct {
	records   services.RecordService
	maxUpload int64
	logger    *slog.Logger
}

// NewFileHandler creates a new file handler. maxUpload caps multipart bodies.
func NewFileHandler(records services.RecordService, maxUpload int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		records:   records,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// ListFiles returns every record ordered by name
// GET /api/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecords(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}

// GetFile retrieves one record
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "invalid file ID")
		return
	}

	rec, err := h.records.GetRecord(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// CreateFile creates a text record from JSON or stores a multipart upload
// POST /api/files
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.uploadFile(w, r)
		return
	}

	var req models.CreateRecordRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.records.CreateRecord(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rec)
}

// uploadFile handles multipart "file" plus optional "path" (destination folder)
func (h *FileHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: multipart field \"file\": %w", domain.ErrValidation, err))
		return
	}
	defer file.Close()

	rec, err := h.records.Upload(r.Context(), &models.UploadRequest{
		Folder:   r.FormValue("path"),
		Filename: header.Filename,
		Size:     header.Size,
	}, file)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rec)
}

// UpdateFile edits content and/or renames a record
// PUT|PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "invalid file ID")
		return
	}

	var req models.UpdateRecordRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.records.UpdateRecord(r.Context(), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// DeleteFile removes a record
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "invalid file ID")
		return
	}

	deleted, err := h.records.DeleteRecord(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleted)
}

// ImportArchive loads a multipart zip "file" into records
// POST /api/import
func (h *FileHandler) ImportArchive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, _, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: multipart field \"file\": %w", domain.ErrValidation, err))
		return
	}
	defer file.Close()

	result, err := h.records.ImportArchive(r.Context(), file)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
