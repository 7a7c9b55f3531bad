package vfs

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"codefolio/internal/config"
	"codefolio/internal/domain"
)

// CleanName trims surrounding whitespace. Names are stored cleaned.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName checks a file record name. The reserved marker segment is
// rejected; folder markers are validated through ValidateFolderPath.
func ValidateName(name string) error {
	return validatePath(name)
}

// ValidateFolderPath checks a logical folder path (without the marker suffix).
func ValidateFolderPath(path string) error {
	return validatePath(path)
}

// ValidateRecordName checks any stored name, marker or not.
func ValidateRecordName(name string) error {
	if IsFolderMarker(name) {
		return ValidateFolderPath(FolderPathOf(name))
	}
	return ValidateName(name)
}

// validateSegment checks a single path component such as an upload filename.
func validateSegment(name string) error {
	if strings.Contains(name, separator) {
		return invalid(name, "must not contain '/'")
	}
	return validatePath(name)
}

// validatePath applies the legality rules (strict):
//   - non-empty after trimming
//   - no leading or trailing "/"
//   - no "..", no backslash, no empty segments
//   - no reserved ".folder" segment
//   - bounded total and per-segment length
func validatePath(name string) error {
	trimmed := strings.TrimSpace(name)
	if err := validation.Validate(trimmed,
		validation.Required,
		validation.Length(1, config.MaxRecordNameLength),
	); err != nil {
		return invalid(trimmed, err.Error())
	}

	if strings.HasPrefix(trimmed, separator) || strings.HasSuffix(trimmed, separator) {
		return invalid(trimmed, "must not start or end with '/'")
	}

	if strings.Contains(trimmed, "..") {
		return invalid(trimmed, "must not contain '..'")
	}

	if strings.Contains(trimmed, `\`) {
		return invalid(trimmed, "must not contain backslashes")
	}

	for i, segment := range strings.Split(trimmed, separator) {
		if strings.TrimSpace(segment) == "" {
			return invalid(trimmed, fmt.Sprintf("empty segment at position %d", i))
		}
		if err := validation.Validate(segment, validation.Length(1, config.MaxSegmentLength)); err != nil {
			return invalid(trimmed, fmt.Sprintf("segment %q: %v", segment, err))
		}
		if segment == MarkerSegment {
			return invalid(trimmed, fmt.Sprintf("%q is reserved for folder markers", MarkerSegment))
		}
	}

	return nil
}

func invalid(name, reason string) error {
	return &domain.InvalidNameError{Name: name, Reason: reason}
}
