package handler

import (
	"context"
	"net/http"
	"time"

	"codefolio/internal/domain/repositories"
	"codefolio/internal/httputil"
)

// HealthHandler reports liveness and store reachability
type HealthHandler struct {
	pinger  repositories.Pinger
	backend string
}

// NewHealthHandler creates a health handler for the given store
func NewHealthHandler(pinger repositories.Pinger, backend string) *HealthHandler {
	return &HealthHandler{pinger: pinger, backend: backend}
}

// Health pings the store
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		respondCode(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.backend,
	})
}
