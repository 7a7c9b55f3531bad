package repositories

import (
	"context"

	"codefolio/internal/domain/models"
)

// RecordRepository defines data access operations for records.
// Every method participates in the transaction carried by ctx, if any.
type RecordRepository interface {
	// ListByOwner returns every record of the owner ordered by name
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Record, error)

	// GetByID retrieves a record by ID
	// Returns domain.ErrNotFound if it does not exist for the owner
	GetByID(ctx context.Context, id, ownerID int64) (*models.Record, error)

	// Create inserts a record and fills in its ID and timestamps
	// A case-insensitive name collision returns domain.ErrDuplicateName
	Create(ctx context.Context, record *models.Record) error

	// Update rewrites name, content and language of an existing record
	Update(ctx context.Context, record *models.Record) error

	// Delete removes a record
	Delete(ctx context.Context, id, ownerID int64) error

	// ListContentWithPrefix returns the content of every record (all owners)
	// starting with prefix. Used to find referenced assets.
	ListContentWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
