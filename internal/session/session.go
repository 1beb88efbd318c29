// Package session defines the storage session handle used by the transaction
// boundary and the transaction scope, and a database/sql implementation of it.
package session

import (
	"context"
	"database/sql"
	"errors"
)

// Raw storage failures that the classifier recognizes
var (
	// ErrNoRows is returned when a lookup matched nothing
	ErrNoRows = sql.ErrNoRows

	// ErrStaleData is returned when an update matched the row but not its version
	ErrStaleData = errors.New("session: row version mismatch")

	// ErrTxDone is returned when a finalized transaction is committed or rolled back again
	ErrTxDone = sql.ErrTxDone
)

// Querier is the statement surface of a session
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is a handle to a storage connection with an implicitly begun transaction
type Session interface {
	Querier

	// Commit makes the transaction's changes durable
	Commit() error

	// Rollback discards the transaction's changes
	Rollback() error

	// Close releases the session. An unfinished transaction is rolled back.
	Close() error

	// InTransaction reports whether a transaction is active
	InTransaction() bool
}

// Factory creates fresh sessions
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// FactoryFunc adapts a function to the Factory interface
type FactoryFunc func(ctx context.Context) (Session, error)

// NewSession calls f(ctx)
func (f FactoryFunc) NewSession(ctx context.Context) (Session, error) {
	return f(ctx)
}
