// Package database opens the configured storage backend and wires its repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codefolio/internal/config"
	"codefolio/internal/database/migrations"
	"codefolio/internal/domain/repositories"
	"codefolio/internal/repository/postgres"
	"codefolio/internal/repository/sqlite"
)

// Backend types accepted in config.DatabaseType
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
	TypeMemory   = "memory"
)

// Store bundles the repositories of one backend.
type Store struct {
	Records  repositories.RecordRepository
	Profiles repositories.ProfileRepository
	Tx       repositories.TransactionManager
	Pinger   repositories.Pinger
	Type     string

	close func()
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Options controls how Open prepares the schema.
type Options struct {
	// Migrate applies pending migrations instead of only checking the version.
	Migrate bool
}

// Open connects to the backend named by cfg.DatabaseType.
// The memory backend is always migrated since it starts empty.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Store, error) {
	switch cfg.DatabaseType {
	case TypePostgres:
		return openPostgres(ctx, cfg, logger, opts)
	case TypeSQLite:
		return openSQLite(cfg.SQLitePath, logger, opts)
	case TypeMemory:
		return openSQLite(sqlite.MemoryPath, logger, Options{Migrate: true})
	default:
		return nil, fmt.Errorf("unknown database type %q (expected %s, %s or %s)",
			cfg.DatabaseType, TypePostgres, TypeSQLite, TypeMemory)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB := postgres.OpenSQLDB(pool)
	defer sqlDB.Close()

	if err := prepareSchema(sqlDB, migrations.Postgres, opts); err != nil {
		pool.Close()
		return nil, err
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Logger: logger}
	logger.Info("database connected", "type", TypePostgres)

	return &Store{
		Records:  postgres.NewRecordRepository(repoConfig),
		Profiles: postgres.NewProfileRepository(repoConfig),
		Tx:       postgres.NewTransactionManager(pool, logger),
		Pinger:   postgres.NewPinger(pool),
		Type:     TypePostgres,
		close:    pool.Close,
	}, nil
}

func openSQLite(path string, logger *slog.Logger, opts Options) (*Store, error) {
	db, err := sqlite.OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := prepareSchema(db, migrations.SQLite, opts); err != nil {
		db.Close()
		return nil, err
	}

	backend := TypeSQLite
	if path == sqlite.MemoryPath {
		backend = TypeMemory
	}

	repoConfig := &sqlite.RepositoryConfig{DB: db, Logger: logger}
	logger.Info("database connected", "type", backend, "path", path)

	return &Store{
		Records:  sqlite.NewRecordRepository(repoConfig),
		Profiles: sqlite.NewProfileRepository(repoConfig),
		Tx:       sqlite.NewTransactionManager(db, logger),
		Pinger:   sqlite.NewPinger(db),
		Type:     backend,
		close:    func() { db.Close() },
	}, nil
}

func prepareSchema(db *sql.DB, dialect migrations.Dialect, opts Options) error {
	if opts.Migrate {
		if err := migrations.MigrateUp(db, dialect); err != nil {
			return fmt.Errorf("migrate %s: %w", dialect, err)
		}
		return nil
	}
	if err := migrations.CheckDBMigrationStatus(db, dialect); err != nil {
		return fmt.Errorf("schema check failed (run `folioctl migrate`): %w", err)
	}
	return nil
}
