package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"codefolio/internal/domain"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantDuplicate   bool
		wantNoRows      bool
		wantUnavailable bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true, false, false},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true, false, false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false, false, false},
		{"no rows", pgx.ErrNoRows, false, true, false},
		{"connection exception", &pgconn.PgError{Code: "08006"}, false, false, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, false, false, true},
		{"deadline", context.DeadlineExceeded, false, false, true},
		{"other", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPgDuplicateError(tt.err); got != tt.wantDuplicate {
				t.Errorf("IsPgDuplicateError() = %v, want %v", got, tt.wantDuplicate)
			}
			if got := IsPgNoRowsError(tt.err); got != tt.wantNoRows {
				t.Errorf("IsPgNoRowsError() = %v, want %v", got, tt.wantNoRows)
			}
			if got := IsPgUnavailableError(tt.err); got != tt.wantUnavailable {
				t.Errorf("IsPgUnavailableError() = %v, want %v", got, tt.wantUnavailable)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify("list records", &pgconn.PgError{Code: "08001"})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("classify() = %v, want ErrStorageUnavailable", err)
	}

	err = classify("list records", errors.New("syntax"))
	if errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("classify() = %v, should not be ErrStorageUnavailable", err)
	}
}
