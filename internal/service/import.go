package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"codefolio/internal/config"
	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/vfs"
)

// errNotText marks entries that are skipped rather than failed
var errNotText = errors.New("not a text file")

// ImportArchive imports every text entry of a zip archive. New names become
// records, existing names get their content replaced. Each entry commits on
// its own; failures are collected in the result.
func (s *recordService) ImportArchive(ctx context.Context, archive io.Reader) (*models.ImportResult, error) {
	// Read zip file into memory
	data, err := io.ReadAll(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	// Insecure paths are still readable; their names fail validation below
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("not a zip archive: %v", err)}
	}

	result := &models.ImportResult{
		Errors:  []models.ImportError{},
		Records: []models.Record{},
	}

	// Files first; directory entries only keep otherwise empty folders
	var dirs []string
	for _, file := range zr.File {
		name := archiveName(file.Name)
		if name == "" || hidden(name) {
			continue
		}
		if file.FileInfo().IsDir() {
			dirs = append(dirs, name)
			continue
		}

		if vfs.IsFolderMarker(name) {
			dirs = append(dirs, vfs.FolderPathOf(name))
			continue
		}
		result.Summary.TotalFiles++
		s.importFile(ctx, file, name, result)
	}

	sort.Strings(dirs)
	for _, dir := range dirs {
		s.importFolder(ctx, dir, result)
	}

	s.logger.Info("archive import complete",
		"total", result.Summary.TotalFiles,
		"created", result.Summary.Created,
		"folders", result.Summary.Folders,
		"updated", result.Summary.Updated,
		"unchanged", result.Summary.Unchanged,
		"skipped", result.Summary.Skipped,
		"failed", result.Summary.Failed,
	)
	return result, nil
}

// importFile creates or updates the record for one entry
func (s *recordService) importFile(ctx context.Context, file *zip.File, name string, result *models.ImportResult) {
	content, err := readEntry(file)
	if errors.Is(err, errNotText) {
		s.logger.Debug("skipping non-text entry", "file", name)
		result.Summary.Skipped++
		return
	}
	if err != nil {
		s.importFailed(result, name, err)
		return
	}

	var existed bool
	applied, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		if current, ok := snap.Lookup(name); ok {
			existed = true
			return s.planner.EditContent(snap, current.ID, content)
		}
		existed = false
		return s.planner.CreateFile(snap, name, content)
	})
	if err != nil {
		s.importFailed(result, name, err)
		return
	}

	switch {
	case len(applied.created) > 0:
		result.Summary.Created++
		result.Records = append(result.Records, applied.created[0])
	case len(applied.updated) > 0:
		result.Summary.Updated++
		result.Records = append(result.Records, applied.updated[0])
	case existed:
		result.Summary.Unchanged++
	}
}

// importFolder persists a folder that no imported file placed
func (s *recordService) importFolder(ctx context.Context, dir string, result *models.ImportResult) {
	applied, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		if snap.IsFolder(dir) {
			return &vfs.Plan{}, nil
		}
		return s.planner.CreateFolder(snap, dir)
	})
	if err != nil {
		s.importFailed(result, dir+"/", err)
		return
	}
	if len(applied.created) > 0 {
		result.Summary.Folders++
		result.Records = append(result.Records, applied.created[0])
	}
}

func (s *recordService) importFailed(result *models.ImportResult, name string, err error) {
	s.logger.Warn("import entry failed", "file", name, "error", err)
	result.Summary.Failed++
	result.Errors = append(result.Errors, models.ImportError{File: name, Error: err.Error()})
}

// readEntry returns the entry's content if it is UTF-8 text within limits
func readEntry(file *zip.File) (string, error) {
	if file.UncompressedSize64 > config.MaxImportEntryBytes {
		return "", fmt.Errorf("file exceeds %d bytes", config.MaxImportEntryBytes)
	}

	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open entry: %w", err)
	}
	defer rc.Close()

	// The header size is not trusted
	data, err := io.ReadAll(io.LimitReader(rc, config.MaxImportEntryBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read entry: %w", err)
	}
	if len(data) > config.MaxImportEntryBytes {
		return "", fmt.Errorf("file exceeds %d bytes", config.MaxImportEntryBytes)
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", errNotText
	}
	return string(data), nil
}

// archiveName maps a zip path onto a record name
func archiveName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	return strings.Trim(name, "/")
}

// hidden skips OS metadata such as .DS_Store and __MACOSX/
func hidden(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == "__MACOSX" || (strings.HasPrefix(seg, ".") && seg != ".folder") {
			return true
		}
	}
	return false
}
