package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

type txState int

const (
	stateActive txState = iota
	stateCommitFailed
	stateCommitted
	stateRolledBack
)

// SQLFactory creates sessions over a *sql.DB
type SQLFactory struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLFactory creates a factory. opts may be nil.
func NewSQLFactory(db *sql.DB, opts *sql.TxOptions) *SQLFactory {
	return &SQLFactory{db: db, opts: opts}
}

// NewSession begins a transaction and returns it as a session
func (f *SQLFactory) NewSession(ctx context.Context) (Session, error) {
	tx, err := f.db.BeginTx(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &SQLSession{tx: tx}, nil
}

// SQLSession is a session backed by a *sql.Tx
type SQLSession struct {
	mu     sync.Mutex
	tx     *sql.Tx
	state  txState
	closed bool
}

// ExecContext executes a statement inside the transaction
func (s *SQLSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext runs a query inside the transaction
func (s *SQLSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query inside the transaction
func (s *SQLSession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// Commit commits the transaction. A failed commit leaves exactly one Rollback
// call available.
func (s *SQLSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return ErrTxDone
	}
	if err := s.tx.Commit(); err != nil {
		s.state = stateCommitFailed
		return err
	}
	s.state = stateCommitted
	return nil
}

// Rollback rolls the transaction back
func (s *SQLSession) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rollbackLocked()
}

func (s *SQLSession) rollbackLocked() error {
	switch s.state {
	case stateActive:
		s.state = stateRolledBack
		return s.tx.Rollback()
	case stateCommitFailed:
		// database/sql already ended the transaction
		s.state = stateRolledBack
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	default:
		return ErrTxDone
	}
}

// Close rolls back an unfinished transaction. Calling it again is a no-op.
func (s *SQLSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.state == stateActive || s.state == stateCommitFailed {
		return s.rollbackLocked()
	}
	return nil
}

// InTransaction reports whether the transaction is still active
func (s *SQLSession) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == stateActive
}
