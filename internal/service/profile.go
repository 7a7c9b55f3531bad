package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"codefolio/internal/config"
	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
	"codefolio/internal/domain/services"
	"codefolio/internal/storage"
	"codefolio/internal/vfs"
)

// profileService implements services.ProfileService
type profileService struct {
	profiles repositories.ProfileRepository
	assets   storage.AssetStore // nil disables avatar uploads
	ownerID  int64
	logger   *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	profiles repositories.ProfileRepository,
	assets storage.AssetStore,
	ownerID int64,
	logger *slog.Logger,
) services.ProfileService {
	return &profileService{
		profiles: profiles,
		assets:   assets,
		ownerID:  ownerID,
		logger:   logger,
	}
}

// defaultProfile is served until the owner saves one
func (s *profileService) defaultProfile() *models.Profile {
	return &models.Profile{
		UserID:    s.ownerID,
		Name:      "Portfolio Owner",
		Title:     "Software Developer",
		Bio:       "Welcome to my portfolio.",
		UpdatedAt: time.Now(),
	}
}

// GetProfile retrieves the profile, or defaults when none is stored
func (s *profileService) GetProfile(ctx context.Context) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if profile == nil {
		s.logger.Debug("no profile found, returning defaults", "user_id", s.ownerID)
		profile = s.defaultProfile()
	}
	return profile, nil
}

// UpdateProfile applies a partial update
func (s *profileService) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if err := validateProfileRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	profile, err := s.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&profile.Name, req.Name)
	apply(&profile.Title, req.Title)
	apply(&profile.Bio, req.Bio)
	apply(&profile.Location, req.Location)
	apply(&profile.Email, req.Email)
	apply(&profile.Website, req.Website)
	apply(&profile.GitHub, req.GitHub)
	apply(&profile.LinkedIn, req.LinkedIn)
	apply(&profile.AvatarData, req.AvatarData)
	profile.UpdatedAt = time.Now()

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", s.ownerID)
	return profile, nil
}

// UploadAvatar stores an image and sets it as the avatar. The previous
// avatar, if stored by this server, is released.
func (s *profileService) UploadAvatar(ctx context.Context, filename string, body io.Reader, size int64) (*models.Profile, error) {
	if s.assets == nil {
		return nil, &domain.ValidationError{Message: "uploads are not configured"}
	}
	if vfs.Languages().MediaLanguage(filename) != "image" {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("avatar %q is not an image", filename)}
	}

	profile, err := s.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	previous := profile.AvatarData

	ctx = context.WithoutCancel(ctx)
	ref, err := s.assets.Save(ctx, filename, body, size)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	profile.AvatarData = ref
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		if delErr := s.assets.Delete(ctx, ref); delErr != nil {
			s.logger.Warn("failed to remove orphaned avatar", "ref", ref, "error", delErr)
		}
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	if previous != "" && previous != ref && storage.Owns(s.assets, previous) {
		if err := s.assets.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to remove previous avatar", "ref", previous, "error", err)
		}
	}

	s.logger.Info("avatar updated", "user_id", s.ownerID, "ref", ref)
	return profile, nil
}

// validateProfileRequest validates a profile update request
func validateProfileRequest(req *models.UpdateProfileRequest) error {
	text := validation.Length(0, config.MaxProfileFieldLength)
	link := validation.Length(0, config.MaxProfileURLLength)

	return validation.ValidateStruct(req,
		validation.Field(&req.Name, text),
		validation.Field(&req.Title, text),
		validation.Field(&req.Location, text),
		validation.Field(&req.Email, link, is.EmailFormat),
		validation.Field(&req.Website, link, is.URL),
		validation.Field(&req.GitHub, link, is.URL),
		validation.Field(&req.LinkedIn, link, is.URL),
	)
}

// AvatarReferences reports the stored avatar to the asset sweeper
func AvatarReferences(profiles repositories.ProfileRepository, ownerID int64) storage.ReferenceSource {
	return func(ctx context.Context, prefix string) ([]string, error) {
		profile, err := profiles.GetByUserID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if profile == nil || profile.AvatarData == "" {
			return nil, nil
		}
		return []string{profile.AvatarData}, nil
	}
}
