// Package repository provides data access against Postgres.
//
// Queries wraps a database handle or transaction; services hold a
// *Queries and use WithTx when they need transactional grouping.
// Database errors are returned raw; translation into domain errors
// happens in the service layer.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database handle behaviour Queries needs.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds all query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Transactor runs a function against a transaction-bound Queries,
// committing on nil and rolling back on error.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor over the database handle.
func NewTransactor(db *sql.DB) Transactor {
	return Transactor{db: db}
}

// RunTx begins a transaction, invokes fn with a Queries bound to it, and
// commits if fn returns nil.
func (t Transactor) RunTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Postgres error codes we branch on.
const (
	pgUniqueViolation = "23505"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
