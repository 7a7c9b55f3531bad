package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"codefolio/internal/domain/models"
)

// SSEHandler streams change events as Server-Sent Events. Every message is
// a data line holding the same JSON the WebSocket transport sends.
type SSEHandler struct {
	hub       *Hub
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewSSEHandler creates an SSE transport over hub.
func NewSSEHandler(hub *Hub, keepAlive time.Duration, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, keepAlive: keepAlive, logger: logger}
}

// ServeHTTP handles GET /api/events
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	out := &sseWriter{w: w, flusher: flusher}
	logger := h.logger.With("subscriber_id", sub.ID, "transport", "sse")
	logger.Info("observer connected", "client_ip", r.RemoteAddr)

	if err := out.writeEvent(models.ChangeEvent{Type: models.EventConnected}); err != nil {
		logger.Debug("greeting failed", "error", err)
		return
	}

	keepAlive := NewTickerKeepAlive(h.keepAlive)
	keepAliveDone := keepAlive.Start(out, logger)
	// The response must not be written after ServeHTTP returns
	defer func() {
		keepAlive.Stop()
		<-keepAliveDone
	}()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := out.writeEvent(event); err != nil {
				logger.Debug("event write failed", "error", err)
				return
			}
		case <-keepAliveDone:
			return
		case <-r.Context().Done():
			logger.Info("observer disconnected")
			return
		}
	}
}

// sseWriter serializes event and keep-alive writes on one response.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) writeEvent(event models.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive implements KeepAliveWriter with an SSE comment line.
func (s *sseWriter) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	s.flusher.Flush()
	return nil
}
