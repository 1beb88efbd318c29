// ============================================================================
// itemdb - Persistence utility
// ============================================================================
//
// Package:     classify
// Description: Translation of raw storage failures into domain errors
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

// Package classify maps raw driver failures onto the dberr taxonomy.
// Backend knowledge lives in Translator implementations; the Classifier owns
// the priority order and never lets a raw failure through untranslated.
package classify

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"

	"github.com/msto63/itemdb/internal/dberr"
	"github.com/msto63/itemdb/internal/session"
)

// Resource identifies what a failed unit of work was operating on
type Resource struct {
	Type string
	ID   string
}

// Classifier translates raw failures using a fixed set of backend translators
type Classifier struct {
	translators []Translator
}

// New creates a classifier. Translators are consulted in order.
func New(translators ...Translator) *Classifier {
	return &Classifier{translators: translators}
}

// Default returns a classifier for PostgreSQL, MySQL and SQLite
func Default() *Classifier {
	return New(Postgres{}, MySQL{}, SQLite{})
}

// Translators returns the names of the configured translators
func (c *Classifier) Translators() []string {
	names := make([]string, 0, len(c.translators))
	for _, t := range c.translators {
		names = append(names, t.Name())
	}
	return names
}

// Classify translates raw into a domain error. The operation is left empty
// for the caller to set. A nil raw error yields nil.
func (c *Classifier) Classify(raw error, resource Resource) (result *dberr.Error) {
	if raw == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = dberr.Transaction("", fallbackDetails(raw)).WithCause(raw)
		}
	}()

	// Already translated further down the call chain
	var domainErr *dberr.Error
	if errors.As(raw, &domainErr) {
		return passthrough(domainErr, raw, resource)
	}

	if isNoRows(raw) {
		return dberr.NotFound(resource.Type, resource.ID, "").WithCause(raw)
	}

	translated, recognized := c.translate(raw)
	if recognized && translated.Kind == dberr.KindConstraint {
		name, _ := translated.Details["constraint"].(string)
		return dberr.Constraint(name, "", translated.Details).WithCause(raw)
	}

	if errors.Is(raw, session.ErrStaleData) {
		return dberr.OptimisticLock(resource.Type, resource.ID, "").WithCause(raw)
	}

	// The message heuristic only applies to errors no translator recognized
	connection := hasConnectionSignal(raw) || (!recognized && mentionsConnection(raw))
	if connection || (recognized && translated.Kind == dberr.KindConnection) {
		return dberr.Connection("").WithCause(raw)
	}

	details := fallbackDetails(raw)
	if recognized {
		for k, v := range translated.Details {
			details[k] = v
		}
	}
	return dberr.Transaction("", details).WithCause(raw)
}

// passthrough returns a copy of a domain error raised further down the call
// chain; the original is never modified. Sentinels become complete errors of
// their kind.
func passthrough(domainErr *dberr.Error, raw error, resource Resource) *dberr.Error {
	if !domainErr.IsSentinel() {
		return domainErr.Copy()
	}

	var result *dberr.Error
	switch domainErr.Kind() {
	case dberr.KindNotFound:
		result = dberr.NotFound(resource.Type, resource.ID, "")
	case dberr.KindOptimisticLock:
		result = dberr.OptimisticLock(resource.Type, resource.ID, "")
	default:
		result = domainErr.Copy()
	}
	if raw != error(domainErr) {
		result = result.WithCause(raw)
	}
	return result
}

// translate asks each translator in order. A panicking translator counts as
// not recognizing the error.
func (c *Classifier) translate(raw error) (Result, bool) {
	for _, t := range c.translators {
		if result, ok := safeClassify(t, raw); ok {
			if result.Details == nil {
				result.Details = dberr.Details{}
			}
			return result, true
		}
	}
	return Result{}, false
}

func safeClassify(t Translator, raw error) (result Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = Result{}, false
		}
	}()
	return t.Classify(raw)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, session.ErrNoRows)
}

// IsConnectionError reports whether err looks like a dropped, refused or lost
// connection. The message check is a heuristic and matches any error whose
// text mentions "connection" or "lost".
func IsConnectionError(err error) bool {
	return hasConnectionSignal(err) || mentionsConnection(err)
}

func hasConnectionSignal(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func mentionsConnection(err error) bool {
	msg := strings.ToLower(errorMessage(err))
	return strings.Contains(msg, "connection") || strings.Contains(msg, "lost")
}

func fallbackDetails(raw error) dberr.Details {
	return dberr.Details{
		"error_type": ErrorType(raw),
		"message":    errorMessage(raw),
	}
}

// errorMessage guards against Error methods that panic on nil receivers
func errorMessage(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = ErrorType(err)
		}
	}()
	return err.Error()
}
