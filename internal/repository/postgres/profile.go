package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
)

// PostgresProfileRepository implements the ProfileRepository interface
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgresProfileRepository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// GetByUserID retrieves the profile for a specific user
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, name, title, bio, location, email, website, github, linkedin, avatar_data, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p models.Profile
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(
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
		if IsPgNoRowsError(err) {
			// No profile yet - not an error
			return nil, nil
		}
		return nil, classify("get profile", err)
	}

	return &p, nil
}

// Upsert creates or updates the profile
func (r *PostgresProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, name, title, bio, location, email, website, github, linkedin, avatar_data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			title = EXCLUDED.title,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			github = EXCLUDED.github,
			linkedin = EXCLUDED.linkedin,
			avatar_data = EXCLUDED.avatar_data,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
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
		p.UpdatedAt,
	).Scan(&p.UpdatedAt)

	if err != nil {
		return classify("upsert profile", err)
	}

	return nil
}
