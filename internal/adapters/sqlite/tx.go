package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/mes/internal/ports/secondary"
)

// txKey carries the open *sql.Tx through a context.
type txKey struct{}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction bound to ctx, or db outside one.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// runInTx runs fn in a transaction. When ctx already carries one, fn joins
// it and the outermost caller commits.
func runInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, q querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx, tx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Transactor implements secondary.Transactor with SQLite.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new SQLite transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in one transaction. Repositories called with the ctx
// handed to fn write through that transaction; an error from fn rolls
// every write back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, t.db, func(ctx context.Context, _ querier) error {
		return fn(ctx)
	})
}

// Ensure Transactor implements the interface
var _ secondary.Transactor = (*Transactor)(nil)
