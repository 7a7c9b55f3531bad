package client

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"codefolio/internal/domain/models"
)

func TestArchiveDirectory(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("README.md", "# Hi")
	mustWrite("src/main.go", "package main")
	mustWrite(".git/config", "secret")
	mustWrite(".env", "TOKEN=x")
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	buf, err := ArchiveDirectory(dir)
	if err != nil {
		t.Fatalf("ArchiveDirectory() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)

	want := []string{"README.md", "empty/", "src/", "src/main.go"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("entries = %v, want %v", names, want)
	}
}

func TestClient_Import(t *testing.T) {
	var gotAuth string
	var gotSize int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		gotSize = len(data)
		json.NewEncoder(w).Encode(models.ImportResult{Summary: models.ImportSummary{TotalFiles: 2, Created: 2}})
	}))
	defer srv.Close()

	c := New(&Config{ServerURL: srv.URL, Token: "tok"})
	result, err := c.Import(context.Background(), bytes.NewReader([]byte("zipdata")))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Summary.Created != 2 {
		t.Errorf("Summary = %+v", result.Summary)
	}
	if gotAuth != "Bearer tok" || gotSize != len("zipdata") {
		t.Errorf("request auth %q size %d", gotAuth, gotSize)
	}
}
