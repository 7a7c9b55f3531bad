// Package storage keeps uploaded binary assets outside the record store.
//
// A record created by an upload holds only the reference returned by Save
// (a URL under URLPrefix). Deleting the record hands the reference back
// through Delete.
package storage

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Asset is one stored object.
type Asset struct {
	Ref     string
	ModTime time.Time
}

// AssetStore stores upload payloads and hands out references to them.
type AssetStore interface {
	// Save stores r under a name derived from filename and returns its reference.
	// A negative size skips the length check.
	Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error)

	// Delete removes the object behind ref. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error

	// URLPrefix is the prefix shared by every reference this store returns.
	URLPrefix() string

	// List returns every stored object.
	List(ctx context.Context) ([]Asset, error)
}

// ObjectName builds the stored name for an upload: the upload time in unix
// milliseconds, a dash, then the original name with whitespace runs
// replaced by underscores.
func ObjectName(filename string, at time.Time) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.Join(strings.FieldsFunc(base, unicode.IsSpace), "_")
	if base == "" {
		base = "upload"
	}
	return strconv.FormatInt(at.UnixMilli(), 10) + "-" + base
}

// Owns reports whether ref was issued by store.
func Owns(store AssetStore, ref string) bool {
	prefix := store.URLPrefix()
	return prefix != "" && strings.HasPrefix(ref, prefix) && len(ref) > len(prefix)
}

// objectKey strips prefix from ref, returning false when the remainder is
// not a single plain object name.
func objectKey(ref, prefix string) (string, bool) {
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(ref, prefix)
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", false
	}
	return key, true
}
