package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"codefolio/internal/domain/models"
)

// waitForSubscribers polls until the hub has n subscribers
func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers, have %d", n, hub.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(4, testLogger())
	srv := httptest.NewServer(NewWebSocketHandler(hub, "*", testLogger()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var greeting models.ChangeEvent
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if greeting.Type != models.EventConnected {
		t.Errorf("greeting type = %q, want %q", greeting.Type, models.EventConnected)
	}

	waitForSubscribers(t, hub, 1)
	hub.Publish(models.RecordUpdated(models.Record{ID: 7, Name: "src/a.ts", Content: "x", Language: "typescript"}))

	var event models.ChangeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != models.EventFileUpdated || event.Record == nil || event.Record.Name != "src/a.ts" {
		t.Errorf("event = %+v", event)
	}

	// Client messages are ignored, not fatal
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"file.deleted"}`)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	hub.Publish(models.RecordDeleted(7))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event after client message: %v", err)
	}
	if event.Type != models.EventFileDeleted || event.ID != 7 {
		t.Errorf("event = %+v", event)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Count() != 0 {
		t.Errorf("subscriber not released after disconnect")
	}
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(1, testLogger())
	srv := httptest.NewServer(NewWebSocketHandler(hub, "https://folio.example.com", testLogger()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial() error = nil, want handshake failure")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestSSEHandler(t *testing.T) {
	hub := NewHub(4, testLogger())
	srv := httptest.NewServer(NewSSEHandler(hub, time.Hour, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() models.ChangeEvent {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				var e models.ChangeEvent
				if err := json.Unmarshal([]byte(data), &e); err != nil {
					t.Fatalf("decode %q: %v", data, err)
				}
				return e
			}
		}
	}

	if got := readEvent(); got.Type != models.EventConnected {
		t.Errorf("first event = %q, want %q", got.Type, models.EventConnected)
	}

	waitForSubscribers(t, hub, 1)
	hub.Publish(models.RecordCreated(models.Record{ID: 3, Name: "notes.md", Language: "markdown"}))

	got := readEvent()
	if got.Type != models.EventFileCreated || got.ID != 3 {
		t.Errorf("event = %+v", got)
	}
}

// gatedResponse blocks the first keep-alive write until released and counts
// writes made after the handler returned.
type gatedResponse struct {
	header  http.Header
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu       sync.Mutex
	returned bool
	late     int
}

func newGatedResponse() *gatedResponse {
	return &gatedResponse{
		header:  http.Header{},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedResponse) Header() http.Header { return g.header }
func (g *gatedResponse) WriteHeader(int)     {}
func (g *gatedResponse) Flush()              {}

func (g *gatedResponse) Write(p []byte) (int, error) {
	if strings.HasPrefix(string(p), ":") {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.returned {
		g.late++
	}
	return len(p), nil
}

func TestSSEHandler_WaitsForKeepAliveOnDisconnect(t *testing.T) {
	hub := NewHub(4, testLogger())
	h := NewSSEHandler(hub, time.Millisecond, testLogger())
	w := newGatedResponse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)

	served := make(chan struct{})
	go func() {
		h.ServeHTTP(w, req)
		w.mu.Lock()
		w.returned = true
		w.mu.Unlock()
		close(served)
	}()

	select {
	case <-w.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no keep-alive written")
	}

	// Disconnect while the keep-alive write is in flight
	cancel()
	select {
	case <-served:
		t.Fatal("ServeHTTP returned during a keep-alive write")
	case <-time.After(50 * time.Millisecond):
	}

	close(w.release)
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeHTTP did not return")
	}

	time.Sleep(20 * time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.late != 0 {
		t.Errorf("writes after return = %d, want 0", w.late)
	}
}

type countingWriter struct {
	calls chan struct{}
}

func (c *countingWriter) WriteKeepAlive() error {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return nil
}

func TestTickerKeepAlive(t *testing.T) {
	w := &countingWriter{calls: make(chan struct{}, 10)}
	k := NewTickerKeepAlive(5 * time.Millisecond)
	done := k.Start(w, testLogger())

	select {
	case <-w.calls:
	case <-time.After(time.Second):
		t.Fatal("no keep-alive written")
	}

	k.Stop()
	k.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop")
	}
}
