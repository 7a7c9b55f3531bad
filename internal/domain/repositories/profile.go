package repositories

import (
	"context"

	"codefolio/internal/domain/models"
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// GetByUserID retrieves the profile for a specific user
	// Returns nil if no profile exists yet
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)

	// Upsert creates or updates the profile
	Upsert(ctx context.Context, profile *models.Profile) error
}
