package repository

import (
	"context"
	"database/sql"
)

// Executor is the subset of methods shared by *sql.DB and *sql.Tx, so
// one repository type serves both pooled and transactional access.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
)
