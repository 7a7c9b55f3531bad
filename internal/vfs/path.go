// Package vfs implements the virtual filesystem over flat, path-named records:
// path handling, name rules, the derived tree, and mutation planning.
package vfs

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	// MarkerSegment is the reserved final segment of a folder marker record.
	MarkerSegment = ".folder"

	// MarkerSuffix ends every folder marker record name.
	MarkerSuffix = "/" + MarkerSegment

	separator = "/"
)

// Segments splits a name on "/" and discards empty segments.
//
// Examples:
//   - Segments("src/utils/helper.ts") → ["src", "utils", "helper.ts"]
//   - Segments("a//b/") → ["a", "b"]
func Segments(name string) []string {
	parts := strings.Split(name, separator)
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// IsFolderMarker reports whether name designates a folder marker.
func IsFolderMarker(name string) bool {
	return strings.HasSuffix(name, MarkerSuffix)
}

// FolderPathOf returns the logical folder path of a marker name.
func FolderPathOf(marker string) string {
	return strings.TrimSuffix(marker, MarkerSuffix)
}

// MarkerName returns the marker record name persisting folderPath.
func MarkerName(folderPath string) string {
	return folderPath + MarkerSuffix
}

// Normalize trims and case-folds a name. Two names collide iff their
// normalized forms are equal.
func Normalize(name string) string {
	// Casers are stateful, so one per call
	return cases.Fold().String(strings.TrimSpace(name))
}

// Parent returns everything before the last "/", or "" for a top-level name.
func Parent(name string) string {
	i := strings.LastIndex(name, separator)
	if i < 0 {
		return ""
	}
	return name[:i]
}

// Base returns the final segment of name.
func Base(name string) string {
	return name[strings.LastIndex(name, separator)+1:]
}

// Join builds a child path. An empty parent designates the root.
func Join(parent, base string) string {
	if parent == "" {
		return base
	}
	return parent + separator + base
}

// Ancestors returns every proper prefix folder path of name, shallowest first.
//
// Example: Ancestors("a/b/c.ts") → ["a", "a/b"]
func Ancestors(name string) []string {
	segments := Segments(name)
	if len(segments) < 2 {
		return nil
	}
	ancestors := make([]string, 0, len(segments)-1)
	current := ""
	for _, seg := range segments[:len(segments)-1] {
		current = Join(current, seg)
		ancestors = append(ancestors, current)
	}
	return ancestors
}

// InFolder reports whether name lies under folder: it is the folder's marker
// or starts with folder + "/". The comparison is exact, like the tree.
func InFolder(name, folder string) bool {
	return strings.HasPrefix(name, folder+separator)
}

// Rebase replaces the old folder prefix of name with newFolder.
// name must satisfy InFolder(name, oldFolder).
func Rebase(name, oldFolder, newFolder string) string {
	return newFolder + name[len(oldFolder):]
}
