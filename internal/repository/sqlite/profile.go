package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
)

// SQLiteProfileRepository implements the ProfileRepository interface
type SQLiteProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProfileRepository creates a new SQLiteProfileRepository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &SQLiteProfileRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// GetByUserID retrieves the profile for a specific user
func (r *SQLiteProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, name, title, bio, location, email, website, github, linkedin, avatar_data, updated_at
		FROM profiles
		WHERE user_id = ?
	`

	var p models.Profile
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Name,
		&p.Title,
		&p.Bio,
		&p.Location,
		&p.Email,
		&p.Website,
		&p.GitHub,
		&p.LinkedIn,
		&p.AvatarData,
		&p.UpdatedAt,
	)

	if err != nil {
		if IsNoRowsError(err) {
			return nil, nil
		}
		return nil, classify("get profile", err)
	}

	return &p, nil
}

// Upsert creates or updates the profile
func (r *SQLiteProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, name, title, bio, location, email, website, github, linkedin, avatar_data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			title = excluded.title,
			bio = excluded.bio,
			location = excluded.location,
			email = excluded.email,
			website = excluded.website,
			github = excluded.github,
			linkedin = excluded.linkedin,
			avatar_data = excluded.avatar_data,
			updated_at = excluded.updated_at
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.UserID,
		p.Name,
		p.Title,
		p.Bio,
		p.Location,
		p.Email,
		p.Website,
		p.GitHub,
		p.LinkedIn,
		p.AvatarData,
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return classify("upsert profile", err)
	}

	return nil
}
