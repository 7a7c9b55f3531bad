package config

const (
	// MaxRecordNameLength is the maximum length for a full record path.
	// Deep hierarchies past this length are rejected as invalid names.
	MaxRecordNameLength = 500

	// MaxSegmentLength is the maximum length of one path segment.
	MaxSegmentLength = 255

	// MaxProfileFieldLength bounds the short profile fields (name, title, location).
	MaxProfileFieldLength = 120

	// MaxProfileURLLength bounds profile links.
	MaxProfileURLLength = 255

	// DefaultMaxUploadBytes caps multipart uploads when MAX_UPLOAD_BYTES is unset (50MB).
	DefaultMaxUploadBytes = 50 << 20

	// MaxJSONBodyBytes caps JSON request bodies (10MB).
	MaxJSONBodyBytes = 10 << 20

	// MaxImportEntryBytes caps one decompressed file in an imported archive (5MB).
	MaxImportEntryBytes = 5 << 20
)
