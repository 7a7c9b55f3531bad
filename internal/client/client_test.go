package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codefolio/internal/domain/models"
	"codefolio/internal/realtime"
	"codefolio/internal/replica"
	"codefolio/internal/vfs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfig_ReadWrite(t *testing.T) {
	cfg, err := Read(strings.NewReader(`server_url = "https://folio.example.com"
token = "abc"
`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.ServerURL != "https://folio.example.com" || cfg.Token != "abc" {
		t.Errorf("Read() = %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteToFile(path, cfg); err != nil {
		t.Fatalf("WriteToFile() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config mode = %v, want 0600", perm)
	}

	back, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if *back != *cfg {
		t.Errorf("ReadFromFile() = %+v, want %+v", back, cfg)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}

	if _, err := Read(strings.NewReader("server_url = ")); err == nil {
		t.Error("Read(malformed) error = nil")
	}
}

func TestClient_WebSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:3000", "ws://localhost:3000/ws"},
		{"https://folio.example.com/", "wss://folio.example.com/ws"},
		{"https://example.com/folio", "wss://example.com/folio/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := New(&Config{ServerURL: tt.server}).WebSocketURL()
			if err != nil {
				t.Fatalf("WebSocketURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WebSocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_ListFilesProblem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":503,"detail":"storage unavailable","code":"storage_unavailable"}`))
	}))
	defer srv.Close()

	_, err := New(&Config{ServerURL: srv.URL}).ListFiles(context.Background())
	if err == nil || !strings.Contains(err.Error(), "storage_unavailable") {
		t.Errorf("ListFiles() error = %v, want storage_unavailable", err)
	}
}

func TestRenderTree(t *testing.T) {
	records := []models.Record{
		{ID: 1, Name: "README.md", Language: "markdown"},
		{ID: 2, Name: "docs/.folder", Language: "plaintext"},
		{ID: 3, Name: "docs/guide.go", Language: "go"},
	}

	out := RenderTree("portfolio", vfs.BuildTree(records))

	for _, want := range []string{"portfolio", "docs/", "guide.go (go)", "README.md (markdown)"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderTree() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, ".folder") {
		t.Errorf("RenderTree() shows marker record:\n%s", out)
	}
}

func TestClient_Watch(t *testing.T) {
	hub := realtime.NewHub(realtime.DefaultBufferSize, testLogger())
	defer hub.Close()

	initial := []models.Record{{ID: 1, Name: "a.md", Content: "v1", Language: "markdown"}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(initial)
	})
	mux.Handle("GET /ws", realtime.NewWebSocketHandler(hub, "*", testLogger()))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := replica.New()
	changes := make(chan Change, 8)
	done := make(chan error, 1)
	go func() {
		done <- New(&Config{ServerURL: srv.URL}).Watch(ctx, rep, func(c Change) { changes <- c })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(
		models.RecordCreated(models.Record{ID: 2, Name: "b.md", Content: "new", Language: "markdown"}),
		models.RecordUpdated(models.Record{ID: 1, Name: "a.md", Content: "v2", Language: "markdown"}),
		models.RecordDeleted(2),
	)

	want := []models.EventType{models.EventFileCreated, models.EventFileUpdated, models.EventFileDeleted}
	for i, typ := range want {
		select {
		case c := <-changes:
			if c.Event.Type != typ || c.Outcome != replica.Applied {
				t.Errorf("change %d = %s/%s, want %s/applied", i, c.Event.Type, c.Outcome, typ)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for change %d", i)
		}
	}

	rec, ok := rep.Get(1)
	if !ok || rec.Content != "v2" {
		t.Errorf("replica record 1 = %+v, want content v2", rec)
	}
	if _, ok := rep.Get(2); ok {
		t.Error("deleted record still in replica")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
