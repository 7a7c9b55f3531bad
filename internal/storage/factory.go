package storage

import (
	"context"
	"fmt"

	"codefolio/internal/config"
)

// NewAssetStoreFromConfig creates an AssetStore based on cfg.AssetStore.
func NewAssetStoreFromConfig(ctx context.Context, cfg *config.Config) (AssetStore, error) {
	switch cfg.AssetStore {
	case "filesystem", "":
		return NewFilesystemStore(cfg.UploadsDir, cfg.UploadsURLPrefix)
	case "s3":
		opts := S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
			Endpoint:      cfg.S3Endpoint,
			AccessKeyID:   cfg.S3AccessKeyID,
			SecretKey:     cfg.S3SecretAccessKey,
		}
		if opts.Bucket == "" {
			return nil, fmt.Errorf("s3 asset store requires S3_BUCKET to be set")
		}
		client, err := NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, opts)
	default:
		return nil, fmt.Errorf("unknown asset store type: %s", cfg.AssetStore)
	}
}
