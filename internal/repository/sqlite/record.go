package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
)

const recordColumns = "id, user_id, name, content, language, created_at, updated_at"

// SQLiteRecordRepository implements repositories.RecordRepository
type SQLiteRecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(config *RepositoryConfig) repositories.RecordRepository {
	return &SQLiteRecordRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// ListByOwner returns every record of the owner ordered by name
func (r *SQLiteRecordRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files WHERE user_id = ? ORDER BY name ASC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, ownerID)
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
func (r *SQLiteRecordRepository) GetByID(ctx context.Context, id, ownerID int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files WHERE id = ? AND user_id = ?`

	rec, err := scanRecord(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
		}
		return nil, classify("get record", err)
	}

	return &rec, nil
}

// Create inserts a record and fills in its ID and timestamps
func (r *SQLiteRecordRepository) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO files (user_id, name, content, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		record.OwnerID,
		record.Name,
		record.Content,
		record.Language,
		now,
		now,
	)
	if err != nil {
		if IsUniqueError(err) {
			return r.duplicateName(ctx, record)
		}
		return classify("create record", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

// Update rewrites name, content and language of an existing record
func (r *SQLiteRecordRepository) Update(ctx context.Context, record *models.Record) error {
	query := `
		UPDATE files
		SET name = ?, content = ?, language = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	now := time.Now().UTC()
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		record.Name,
		record.Content,
		record.Language,
		now,
		record.ID,
		record.OwnerID,
	)
	if err != nil {
		if IsUniqueError(err) {
			return r.duplicateName(ctx, record)
		}
		return classify("update record", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("file %d: %w", record.ID, domain.ErrNotFound)
	}

	record.UpdatedAt = now
	return nil
}

// Delete removes a record
func (r *SQLiteRecordRepository) Delete(ctx context.Context, id, ownerID int64) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM files WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return classify("delete record", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListContentWithPrefix returns record contents starting with prefix
func (r *SQLiteRecordRepository) ListContentWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT content FROM files WHERE instr(content, ?) = 1`, prefix)
	if err != nil {
		return nil, classify("list asset references", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan asset reference: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate asset references", err)
	}
	return refs, nil
}

// duplicateName builds a structured conflict pointing at the existing record
func (r *SQLiteRecordRepository) duplicateName(ctx context.Context, record *models.Record) error {
	conflict := &domain.ConflictError{
		Message:      fmt.Sprintf("a file named %q already exists", record.Name),
		ResourceType: "file",
		Reason:       domain.ErrDuplicateName,
	}

	var existingID int64
	query := `SELECT id FROM files WHERE user_id = ? AND lower(name) = lower(?) AND id <> ?`
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, record.OwnerID, record.Name, record.ID).Scan(&existingID)
	if err == nil {
		conflict.ResourceID = strconv.FormatInt(existingID, 10)
	}
	return conflict
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one row in recordColumns order
func scanRecord(row rowScanner) (models.Record, error) {
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
