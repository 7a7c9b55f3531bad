package sqlite

import (
	"context"
	"testing"
	"time"

	"codefolio/internal/domain/models"
)

func TestProfileRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestConfig(t))

	got, err := repo.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if got != nil {
		t.Fatalf("GetByUserID() = %+v, want nil before first upsert", got)
	}

	p := &models.Profile{UserID: 1, Name: "Ada", Title: "Engineer", UpdatedAt: time.Now()}
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	p.Title = "Staff Engineer"
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err = repo.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if got == nil || got.Name != "Ada" || got.Title != "Staff Engineer" {
		t.Errorf("GetByUserID() = %+v", got)
	}
}
