package services

import (
	"context"
	"io"

	"codefolio/internal/domain/models"
)

// ProfileService defines the business logic for the owner profile
type ProfileService interface {
	// GetProfile retrieves the profile
	// Returns defaults if none exists yet
	GetProfile(ctx context.Context) (*models.Profile, error)

	// UpdateProfile applies a partial update, creating the profile if needed
	UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.Profile, error)

	// UploadAvatar stores an image and points the profile at it
	UploadAvatar(ctx context.Context, filename string, body io.Reader, size int64) (*models.Profile, error)
}
