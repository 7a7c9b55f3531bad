package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/services"
	"codefolio/internal/httputil"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	profiles  services.ProfileService
	maxUpload int64
	logger    *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles services.ProfileService, maxUpload int64, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profiles,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// GetProfile returns the owner profile
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update
// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// UploadAvatar stores a multipart "avatar" image
// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: multipart field \"avatar\": %w", domain.ErrValidation, err))
		return
	}
	defer file.Close()

	profile, err := h.profiles.UploadAvatar(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}
