package repositories

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that both *pgxpool.Pool and pgx.Tx implement
// This allows repositories to work with both regular connections and transactions
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

// SQLExecutor is the database/sql counterpart of DBTX, implemented by both
// *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// txContextKey is the type for transaction context keys
type txContextKey string

// Context keys for storing transactions
const (
	txKey    txContextKey = "pgx_tx"
	sqlTxKey txContextKey = "sql_tx"
)

// SetTx stores a transaction in the context
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTx retrieves a transaction from the context
// Returns nil if no transaction is present
func GetTx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// SetSQLTx stores a database/sql transaction in the context
func SetSQLTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, sqlTxKey, tx)
}

// GetSQLTx retrieves a database/sql transaction from the context
// Returns nil if no transaction is present
func GetSQLTx(ctx context.Context) *sql.Tx {
	tx, ok := ctx.Value(sqlTxKey).(*sql.Tx)
	if !ok {
		return nil
	}
	return tx
}
