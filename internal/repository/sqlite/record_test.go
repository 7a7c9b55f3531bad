package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"codefolio/internal/database/migrations"
	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
)

// newTestDB opens an in-memory database with migrations applied
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenConnection(MemoryPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := migrations.MigrateUp(db, migrations.SQLite); err != nil {
		db.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func newTestConfig(t *testing.T) *RepositoryConfig {
	return &RepositoryConfig{
		DB:     newTestDB(t),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRecordRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(newTestConfig(t))

	for _, name := range []string{"src/b.ts", "README.md", "src/a.ts"} {
		rec := &models.Record{OwnerID: 1, Name: name, Language: "plaintext"}
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
		if rec.ID == 0 {
			t.Errorf("Create(%q) did not assign an id", name)
		}
		if rec.CreatedAt.IsZero() {
			t.Errorf("Create(%q) did not set created_at", name)
		}
	}

	other := &models.Record{OwnerID: 2, Name: "other.md"}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create(other) error = %v", err)
	}

	records, err := repo.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	want := []string{"README.md", "src/a.ts", "src/b.ts"}
	if len(records) != len(want) {
		t.Fatalf("ListByOwner() returned %d records, want %d", len(records), len(want))
	}
	for i, r := range records {
		if r.Name != want[i] {
			t.Errorf("records[%d].Name = %q, want %q", i, r.Name, want[i])
		}
	}
}

func TestRecordRepository_DuplicateNameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(newTestConfig(t))

	first := &models.Record{OwnerID: 1, Name: "a.ts"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, &models.Record{OwnerID: 1, Name: "A.ts"})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("Create(A.ts) error = %v, want ErrDuplicateName", err)
	}
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error is not a ConflictError: %T", err)
	}
	if conflict.ResourceID == "" {
		t.Error("conflict should carry the existing record id")
	}
}

func TestRecordRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(newTestConfig(t))

	rec := &models.Record{OwnerID: 1, Name: "a.md", Content: "old", Language: "markdown"}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec.Name = "docs/a.md"
	rec.Content = "new"
	if err := repo.Update(ctx, rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "docs/a.md" || got.Content != "new" {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(ctx, rec.ID, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(other owner) error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, rec.ID, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, rec.ID, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	missing := &models.Record{ID: 999, OwnerID: 1, Name: "x"}
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRecordRepository_IDsNotReused(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(newTestConfig(t))

	first := &models.Record{OwnerID: 1, Name: "a.md"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, first.ID, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	second := &models.Record{OwnerID: 1, Name: "a.md"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("id %d was reused", second.ID)
	}
}

func TestRecordRepository_ListContentWithPrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(newTestConfig(t))

	for _, rec := range []*models.Record{
		{OwnerID: 1, Name: "a.png", Content: "/uploads/1-a.png", Language: "image"},
		{OwnerID: 2, Name: "b.pdf", Content: "/uploads/2-b.pdf", Language: "pdf"},
		{OwnerID: 1, Name: "c.md", Content: "see /uploads/1-a.png", Language: "markdown"},
	} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%q) error = %v", rec.Name, err)
		}
	}

	refs, err := repo.ListContentWithPrefix(ctx, "/uploads/")
	if err != nil {
		t.Fatalf("ListContentWithPrefix() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("ListContentWithPrefix() = %v, want 2 refs", refs)
	}
}

func TestTransactionManager_RollsBack(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	repo := NewRecordRepository(cfg)
	tm := NewTransactionManager(cfg.DB, cfg.Logger)

	boom := errors.New("boom")
	err := tm.ExecTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, &models.Record{OwnerID: 1, Name: "a.md"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx() error = %v, want boom", err)
	}

	records, err := repo.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records after rollback = %d, want 0", len(records))
	}
}
