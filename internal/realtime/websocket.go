package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"codefolio/internal/domain/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketHandler pushes change events over WebSocket. Clients only
// receive; anything they send besides control frames is discarded.
type WebSocketHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a WebSocket transport over hub. allowedOrigins
// is the comma-separated CORS origin list; "*" accepts any origin and an
// empty list accepts same-host requests only.
func NewWebSocketHandler(hub *Hub, allowedOrigins string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	logger := h.logger.With("subscriber_id", sub.ID, "transport", "websocket")
	logger.Info("observer connected", "client_ip", r.RemoteAddr)

	readDone := make(chan struct{})
	go readControl(conn, readDone)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(models.ChangeEvent{Type: models.EventConnected}); err != nil {
		logger.Debug("greeting failed", "error", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("event write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ping failed", "error", err)
				return
			}
		case <-readDone:
			logger.Info("observer disconnected")
			return
		}
	}
}

// readControl drains the connection so pong and close frames are processed.
// done closes when the peer goes away.
func readControl(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// originChecker builds an Upgrader.CheckOrigin from a CORS origin list.
func originChecker(allowed string) func(r *http.Request) bool {
	origins := make(map[string]bool)
	for _, origin := range strings.Split(allowed, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins[strings.TrimSuffix(origin, "/")] = true
		}
	}

	return func(r *http.Request) bool {
		if origins["*"] {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" || origins[origin] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
