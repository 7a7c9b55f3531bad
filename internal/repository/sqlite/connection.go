// Package sqlite implements the repositories on SQLite for local and test runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"codefolio/internal/domain/repositories"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to :memory: would be its own empty database,
	// and one writer at a time is all SQLite offers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, classify(pragma, err)
		}
	}

	return db, nil
}

// GetExecutor returns the transaction from ctx when present, otherwise db.
func GetExecutor(ctx context.Context, db *sql.DB) repositories.SQLExecutor {
	if tx := repositories.GetSQLTx(ctx); tx != nil {
		return tx
	}
	return db
}

// Pinger checks database connectivity for health endpoints.
type Pinger struct {
	db *sql.DB
}

// NewPinger creates a Pinger for db
func NewPinger(db *sql.DB) repositories.Pinger {
	return &Pinger{db: db}
}

// Ping implements repositories.Pinger
func (p *Pinger) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return unavailable("ping database", err)
	}
	return nil
}
