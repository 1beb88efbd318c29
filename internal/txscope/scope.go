// Package txscope provides the transaction scope: a session is acquired on
// entry and, on exit, committed or rolled back exactly once and then closed.
package txscope

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	mdwlog "github.com/msto63/itemdb/foundation/core/log"
	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/classify"
	"github.com/msto63/itemdb/internal/dberr"
	"github.com/msto63/itemdb/internal/metrics"
	"github.com/msto63/itemdb/internal/session"
)

// Scope manages session lifecycles for one factory
type Scope struct {
	factory  session.Factory
	logger   *mdwlog.Logger
	observer metrics.Observer
}

// Option configures a Scope
type Option func(*Scope)

// WithLogger sets the logger. Default: a discarding logger.
func WithLogger(logger *mdwlog.Logger) Option {
	return func(s *Scope) {
		s.logger = logger
	}
}

// WithObserver sets the event observer. Default: metrics.Nop.
func WithObserver(o metrics.Observer) Option {
	return func(s *Scope) {
		s.observer = o
	}
}

// New creates a scope over factory
func New(factory session.Factory, opts ...Option) *Scope {
	s := &Scope{
		factory:  factory,
		logger:   mdwlog.Discard(),
		observer: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enter acquires a fresh session. A factory that returns neither a session
// nor an error yields dberr.ErrNoSession.
func (s *Scope) Enter(ctx context.Context) (session.Session, error) {
	sess, err := s.factory.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	if sess == nil {
		return nil, dberr.NoSession("")
	}
	return sess, nil
}

// Exit finalizes sess according to outcome and closes it. It must be called
// exactly once per session.
//
// A failure outcome rolls back (unless the transaction is no longer active)
// and is returned unchanged. A nil outcome commits; if the commit fails the
// transaction is rolled back and the commit error is returned.
func (s *Scope) Exit(sess session.Session, outcome error) error {
	logger := s.logger.WithCorrelationID(uuid.NewString())

	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.WarnWithErr("failed to close session", closeErr)
		}
	}()

	if outcome != nil {
		if sess.InTransaction() {
			if rbErr := sess.Rollback(); rbErr != nil {
				logger.ErrorWithErr("rollback failed", rbErr)
			}
		}
		logger.WarnWithErr("transaction rolled back due to error", outcome)
		return outcome
	}

	if commitErr := sess.Commit(); commitErr != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			logger.ErrorWithErr("rollback after failed commit failed", rbErr)
		}
		logger.ErrorWithErr("commit failed, rolled back", commitErr)
		s.observer.CommitFailed()
		return commitErr
	}

	s.observer.Committed()
	return nil
}

// Within runs fn in a fresh session. The session is committed when fn
// returns nil and rolled back otherwise. A panic in fn rolls back, closes
// the session and is re-raised. A panic during finalization is re-raised
// after Exit's own close; the session is never finalized twice.
func (s *Scope) Within(ctx context.Context, fn func(sess session.Session) error) error {
	sess, err := s.Enter(ctx)
	if err != nil {
		return err
	}

	exiting := false
	defer func() {
		if r := recover(); r != nil {
			if !exiting {
				s.Exit(sess, fmt.Errorf("panic: %v", r))
			}
			panic(r)
		}
	}()

	outcome := fn(sess)
	exiting = true
	return s.Exit(sess, outcome)
}

// Do runs a boundary-wrapped unit of work in its own scope. Session
// acquisition and commit failures are classified with the boundary's
// classifier, so callers only see domain errors.
func Do[A, R any](ctx context.Context, s *Scope, b *boundary.Boundary, op boundary.Op, args A, fn boundary.Func[A, R]) (R, error) {
	var result R

	err := s.Within(ctx, func(sess session.Session) error {
		res, err := boundary.Run(ctx, b, op, sess, args, fn)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		var zero R
		return zero, classifyOutcome(b, op, args, err)
	}
	return result, nil
}

// classifyOutcome passes domain and configuration errors through and
// translates what the boundary never saw: session acquisition and commit
// failures.
func classifyOutcome(b *boundary.Boundary, op boundary.Op, args any, err error) error {
	var configErr *dberr.ConfigError
	var domainErr *dberr.Error
	if errors.As(err, &configErr) || errors.As(err, &domainErr) {
		return err
	}

	domainErr = b.Classifier().Classify(err, classify.Resource{
		Type: op.Resource,
		ID:   boundary.ResourceID(args),
	})
	domainErr = domainErr.WithOperation(op.Name)

	b.Observer().Translated(op.Name, domainErr.Code())
	b.Logger().LogError(domainErr.Foundation())
	return domainErr
}
