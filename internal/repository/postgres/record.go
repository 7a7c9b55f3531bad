package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
)

const recordColumns = "id, user_id, name, content, language, created_at, updated_at"

// PostgresRecordRepository implements repositories.RecordRepository
type PostgresRecordRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(config *RepositoryConfig) repositories.RecordRepository {
	return &PostgresRecordRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// ListByOwner returns every record of the owner ordered by name
func (r *PostgresRecordRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM files
		WHERE user_id = $1
		ORDER BY name ASC
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, classify("list records", err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate records", err)
	}

	return records, nil
}

// GetByID retrieves a record by ID
func (r *PostgresRecordRepository) GetByID(ctx context.Context, id, ownerID int64) (*models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM files
		WHERE id = $1 AND user_id = $2
	`

	executor := GetExecutor(ctx, r.pool)
	rec, err := scanRecord(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
		}
		return nil, classify("get record", err)
	}

	return &rec, nil
}

// Create inserts a record and fills in its ID and timestamps
func (r *PostgresRecordRepository) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO files (user_id, name, content, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	now := time.Now().UTC()
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		record.OwnerID,
		record.Name,
		record.Content,
		record.Language,
		now,
		now,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return r.duplicateName(ctx, record)
		}
		return classify("create record", err)
	}

	return nil
}

// Update rewrites name, content and language of an existing record
func (r *PostgresRecordRepository) Update(ctx context.Context, record *models.Record) error {
	query := `
		UPDATE files
		SET name = $1, content = $2, language = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
		RETURNING created_at, updated_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		record.Name,
		record.Content,
		record.Language,
		time.Now().UTC(),
		record.ID,
		record.OwnerID,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("file %d: %w", record.ID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return r.duplicateName(ctx, record)
		}
		return classify("update record", err)
	}

	return nil
}

// Delete removes a record
func (r *PostgresRecordRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM files WHERE id = $1 AND user_id = $2`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return classify("delete record", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListContentWithPrefix returns record contents starting with prefix
func (r *PostgresRecordRepository) ListContentWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT content FROM files WHERE starts_with(content, $1)`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, prefix)
	if err != nil {
		return nil, classify("list asset references", err)
	}

	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("collect asset references", err)
	}
	return refs, nil
}

// duplicateName builds a structured conflict pointing at the existing record.
// Inside a failed transaction the lookup itself fails, so it falls back to a
// conflict without an ID.
func (r *PostgresRecordRepository) duplicateName(ctx context.Context, record *models.Record) error {
	conflict := &domain.ConflictError{
		Message:      fmt.Sprintf("a file named %q already exists", record.Name),
		ResourceType: "file",
		Reason:       domain.ErrDuplicateName,
	}

	if repositories.GetTx(ctx) != nil {
		return conflict
	}

	var existingID int64
	query := `SELECT id FROM files WHERE user_id = $1 AND lower(name) = lower($2)`
	if err := r.pool.QueryRow(ctx, query, record.OwnerID, record.Name).Scan(&existingID); err == nil {
		conflict.ResourceID = strconv.FormatInt(existingID, 10)
	}
	return conflict
}

// scanRecord reads one row in recordColumns order
func scanRecord(row pgx.Row) (models.Record, error) {
	var rec models.Record
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Name,
		&rec.Content,
		&rec.Language,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}
