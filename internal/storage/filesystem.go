package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FilesystemStore keeps assets as files in one directory and serves them
// under a URL prefix.
type FilesystemStore struct {
	dir    string
	prefix string
	now    func() time.Time

	mu sync.Mutex // serializes name allocation
}

// NewFilesystemStore creates the directory when missing.
// prefix is normalized to start and end with "/".
func NewFilesystemStore(dir, prefix string) (*FilesystemStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("filesystem asset store requires an uploads directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	prefix = "/" + strings.Trim(prefix, "/") + "/"
	if prefix == "//" {
		prefix = "/"
	}

	return &FilesystemStore{dir: dir, prefix: prefix, now: time.Now}, nil
}

// URLPrefix implements AssetStore
func (s *FilesystemStore) URLPrefix() string {
	return s.prefix
}

// Save implements AssetStore. The payload goes to a temp file first and is
// renamed into place once fully written.
func (s *FilesystemStore) Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	name, err := s.place(tmpPath, filename)
	if err != nil {
		return "", err
	}

	success = true
	return s.prefix + name, nil
}

// place renames tmpPath to a free object name, bumping the timestamp on
// collision.
func (s *FilesystemStore) place(tmpPath, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	for {
		name := ObjectName(filename, at)
		dest := filepath.Join(s.dir, name)
		if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
			if err := os.Rename(tmpPath, dest); err != nil {
				return "", fmt.Errorf("failed to store upload: %w", err)
			}
			return name, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check upload name: %w", err)
		}
		at = at.Add(time.Millisecond)
	}
}

// Delete implements AssetStore
func (s *FilesystemStore) Delete(ctx context.Context, ref string) error {
	key, ok := objectKey(ref, s.prefix)
	if !ok {
		return fmt.Errorf("reference %q does not belong to this store", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// List implements AssetStore. Temp files of in-flight uploads are skipped.
func (s *FilesystemStore) List(ctx context.Context) ([]Asset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	assets := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		assets = append(assets, Asset{Ref: s.prefix + entry.Name(), ModTime: info.ModTime()})
	}
	return assets, nil
}

// Handler serves stored assets. Mount it at URLPrefix.
func (s *FilesystemStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(strings.TrimSuffix(s.prefix, "/"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No directory listings
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}

var _ AssetStore = (*FilesystemStore)(nil)
