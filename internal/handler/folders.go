package handler

import (
	"log/slog"
	"net/http"

	"codefolio/internal/domain/models"
	"codefolio/internal/domain/services"
	"codefolio/internal/httputil"
)

// FolderHandler handles folder and tree HTTP requests
type FolderHandler struct {
	records services.RecordService
	logger  *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(records services.RecordService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		records: records,
		logger:  logger,
	}
}

// GetTree returns the nested folder/file tree
// GET /api/tree
func (h *FolderHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.records.GetTree(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if tree == nil {
		tree = []*models.TreeNode{}
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// CreateFolder creates a folder marker
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	marker, err := h.records.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, marker)
}

// RenameFolder moves a folder and everything under it
// PATCH /api/folders
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req models.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.records.RenameFolder(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteFolder removes a folder and everything under it
// DELETE /api/folders?path=
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondCode(w, http.StatusBadRequest, codeInvalidName, "folder path is required")
		return
	}

	result, err := h.records.DeleteFolder(r.Context(), path)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
