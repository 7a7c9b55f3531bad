package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"codefolio/internal/domain"
	"codefolio/internal/httputil"
)

// Machine-readable error codes carried in problem details
const (
	codeInvalidName        = "invalid_name"
	codeValidation         = "validation_failed"
	codeDuplicateName      = "duplicate_name"
	codeDuplicateFolder    = "duplicate_folder"
	codeNamespaceConflict  = "namespace_conflict"
	codeNotFound           = "not_found"
	codeStorageUnavailable = "storage_unavailable"
	codeTooLarge           = "too_large"
)

// handleError converts domain errors to HTTP responses. Errors that map to
// a 500 are logged since the client only sees a generic message.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError
	var tooLarge *http.MaxBytesError

	// ErrInvalidName also matches ErrValidation, so it goes first
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		respondCode(w, http.StatusBadRequest, codeInvalidName, err.Error())
	case errors.As(err, &tooLarge):
		respondCode(w, http.StatusRequestEntityTooLarge, codeTooLarge, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondCode(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondCode(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{"code": conflictCode(conflictErr)}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.Is(err, domain.ErrStorageUnavailable):
		respondCode(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable")
	default:
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondCode(w http.ResponseWriter, status int, code, detail string) {
	httputil.RespondErrorWithExtras(w, status, detail, map[string]interface{}{"code": code})
}

func conflictCode(err *domain.ConflictError) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateFolder):
		return codeDuplicateFolder
	case errors.Is(err, domain.ErrNamespaceConflict):
		return codeNamespaceConflict
	default:
		return codeDuplicateName
	}
}

// pathID parses the {id} path value
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
