// Package sessiontest provides a session fake that records finalization calls.
package sessiontest

import (
	"context"
	"database/sql"
	"errors"

	"github.com/msto63/itemdb/internal/session"
)

// ErrNoStatements is returned by the fake's statement methods
var ErrNoStatements = errors.New("sessiontest: fake session runs no statements")

// Fake is an in-memory session. It counts Commit, Rollback and Close calls
// and fails them with the configured errors.
type Fake struct {
	Commits   int
	Rollbacks int
	Closes    int

	CommitErr   error
	RollbackErr error
	CloseErr    error

	// CommitPanic, when non-nil, is raised by Commit after counting the call
	CommitPanic any

	active bool
}

// New returns a fake with an active transaction
func New() *Fake {
	return &Fake{active: true}
}

// Factory returns a factory handing out the given fakes in order
func Factory(fakes ...*Fake) session.Factory {
	return session.FactoryFunc(func(ctx context.Context) (session.Session, error) {
		if len(fakes) == 0 {
			return nil, errors.New("sessiontest: no more sessions")
		}
		next := fakes[0]
		fakes = fakes[1:]
		return next, nil
	})
}

func (f *Fake) Commit() error {
	f.Commits++
	f.active = false
	if f.CommitPanic != nil {
		panic(f.CommitPanic)
	}
	return f.CommitErr
}

func (f *Fake) Rollback() error {
	f.Rollbacks++
	f.active = false
	return f.RollbackErr
}

func (f *Fake) Close() error {
	f.Closes++
	f.active = false
	return f.CloseErr
}

func (f *Fake) InTransaction() bool {
	return f.active
}

func (f *Fake) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, ErrNoStatements
}

func (f *Fake) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, ErrNoStatements
}

// QueryRowContext returns nil; units of work under test must not scan it
func (f *Fake) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}
