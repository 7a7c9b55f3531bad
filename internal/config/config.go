package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Storage
	DatabaseType string // "postgres", "sqlite" or "memory"
	DatabaseURL  string
	SQLitePath   string
	// Auth
	JWTSecret string
	JWKSURL   string // When set, tokens are verified against this JWKS instead of JWTSecret
	// Single-tenant owner used for every record and profile query
	DefaultOwnerID int64
	// Uploads
	AssetStore         string // "filesystem" or "s3"
	UploadsDir         string
	UploadsURLPrefix   string
	S3Bucket           string
	S3Region           string
	S3Prefix           string
	S3PublicBaseURL    string
	S3Endpoint         string // S3-compatible endpoint, path-style addressing when set
	S3AccessKeyID      string
	S3SecretAccessKey  string
	AssetSweepSchedule string // cron expression, empty disables the sweeper
	MaxUploadBytes     int64
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:               getEnv("PORT", "3000"),
		Environment:        env,
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:5173"),
		DatabaseType:       getEnv("DATABASE_TYPE", getDefaultDatabaseType(env)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "codefolio.db"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		DefaultOwnerID:     getEnvInt64("DEFAULT_OWNER_ID", 1),
		AssetStore:         getEnv("ASSET_STORE", "filesystem"),
		UploadsDir:         getEnv("UPLOADS_DIR", "uploads"),
		UploadsURLPrefix:   getEnv("UPLOADS_URL_PREFIX", "/uploads/"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", ""),
		S3Prefix:           getEnv("S3_PREFIX", "uploads/"),
		S3PublicBaseURL:    getEnv("S3_PUBLIC_BASE_URL", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		AssetSweepSchedule: getEnv("ASSET_SWEEP_SCHEDULE", ""),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        int(getEnvInt64("LOG_MAX_FILES", 10)),
	}
}

// getDefaultDatabaseType returns the storage backend used when DATABASE_TYPE is unset
func getDefaultDatabaseType(env string) string {
	if env == "test" {
		return "memory"
	}
	return "postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
