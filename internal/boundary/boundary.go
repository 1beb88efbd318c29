// ============================================================================
// itemdb - Persistence utility
// ============================================================================
//
// Package:     boundary
// Description: Error translation boundary around units of work
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

// Package boundary runs units of work against an explicit session and makes
// sure no raw storage failure leaves them: failures are classified into
// dberr domain errors and the session's transaction is rolled back once.
//
// The boundary does not close the session. Whoever created it (usually a
// txscope.Scope) closes it.
package boundary

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	mdwlog "github.com/msto63/itemdb/foundation/core/log"
	"github.com/msto63/itemdb/internal/classify"
	"github.com/msto63/itemdb/internal/dberr"
	"github.com/msto63/itemdb/internal/metrics"
	"github.com/msto63/itemdb/internal/session"
)

// Op names a unit of work and the resource type it operates on
type Op struct {
	// Name is the logical operation, e.g. "get_item"
	Name string

	// Resource is the resource type used in not-found and conflict messages
	Resource string
}

// Func is a unit of work. It receives the session explicitly.
type Func[A, R any] func(ctx context.Context, sess session.Session, args A) (R, error)

// Boundary holds the collaborators shared by all wrapped units of work
type Boundary struct {
	classifier *classify.Classifier
	logger     *mdwlog.Logger
	observer   metrics.Observer
}

// Option configures a Boundary
type Option func(*Boundary)

// WithClassifier sets the classifier. Default: classify.Default().
func WithClassifier(c *classify.Classifier) Option {
	return func(b *Boundary) {
		b.classifier = c
	}
}

// WithLogger sets the logger. Default: a discarding logger.
func WithLogger(logger *mdwlog.Logger) Option {
	return func(b *Boundary) {
		b.logger = logger
	}
}

// WithObserver sets the event observer. Default: metrics.Nop.
func WithObserver(o metrics.Observer) Option {
	return func(b *Boundary) {
		b.observer = o
	}
}

// New creates a boundary
func New(opts ...Option) *Boundary {
	b := &Boundary{
		classifier: classify.Default(),
		logger:     mdwlog.Discard(),
		observer:   metrics.Nop{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Classifier returns the classifier used for translation
func (b *Boundary) Classifier() *classify.Classifier {
	return b.classifier
}

// Logger returns the boundary's logger
func (b *Boundary) Logger() *mdwlog.Logger {
	return b.logger
}

// Observer returns the boundary's observer
func (b *Boundary) Observer() metrics.Observer {
	return b.observer
}

// Run executes fn inside the boundary.
//
// A nil session returns dberr.ErrNoSession without calling fn. On success the
// result is returned unchanged. On failure the raw error is classified, the
// transaction is rolled back if still active, and the domain error is
// returned with the raw error as its cause. A panic in fn also rolls back and
// is re-raised.
func Run[A, R any](ctx context.Context, b *Boundary, op Op, sess session.Session, args A, fn Func[A, R]) (result R, err error) {
	if sess == nil {
		return result, dberr.NoSession(op.Name)
	}

	logger := b.logger.
		WithCorrelationID(uuid.NewString()).
		WithField("operation", op.Name)

	failed := false
	defer func() {
		if r := recover(); r != nil {
			b.rollback(logger, op, sess)
			panic(r)
		}
		if !failed {
			return
		}
		if rbErr := b.rollback(logger, op, sess); rbErr != nil {
			err = err.(*dberr.Error).WithRollbackErr(rbErr)
		}
	}()

	res, rawErr := fn(ctx, sess, args)
	if rawErr == nil {
		return res, nil
	}

	failed = true
	return result, b.translate(logger, op, args, rawErr)
}

// Wrap returns fn bound to the boundary and operation
func Wrap[A, R any](b *Boundary, op Op, fn Func[A, R]) Func[A, R] {
	return func(ctx context.Context, sess session.Session, args A) (R, error) {
		return Run(ctx, b, op, sess, args, fn)
	}
}

// Exec runs a unit of work without a result
func Exec[A any](ctx context.Context, b *Boundary, op Op, sess session.Session, args A, fn func(ctx context.Context, sess session.Session, args A) error) error {
	_, err := Run(ctx, b, op, sess, args, func(ctx context.Context, sess session.Session, args A) (struct{}, error) {
		return struct{}{}, fn(ctx, sess, args)
	})
	return err
}

func (b *Boundary) translate(logger *mdwlog.Logger, op Op, args any, raw error) *dberr.Error {
	domainErr := b.classifier.Classify(raw, classify.Resource{
		Type: op.Resource,
		ID:   ResourceID(args),
	})

	// A domain error raised by a nested unit of work keeps its operation
	if domainErr.Operation() == "" {
		domainErr = domainErr.WithOperation(op.Name)
	}

	b.observer.Translated(op.Name, domainErr.Code())
	logger.LogError(domainErr.Foundation())
	return domainErr
}

// rollback finalizes a failed unit of work. A rollback failure is logged and
// returned for the caller to record; it never replaces the domain error.
func (b *Boundary) rollback(logger *mdwlog.Logger, op Op, sess session.Session) error {
	if !sess.InTransaction() {
		return nil
	}

	if err := sess.Rollback(); err != nil {
		logger.ErrorWithErr(fmt.Sprintf("Rollback failed for %s", op.Name), err)
		b.observer.RollbackFailed(op.Name)
		return err
	}

	logger.Warn(fmt.Sprintf("Rolled back transaction for %s due to error", op.Name))
	b.observer.RolledBack(op.Name)
	return nil
}
