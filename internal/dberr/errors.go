// ============================================================================
// itemdb - Persistence utility
// ============================================================================
//
// Package:     dberr
// Description: Domain error taxonomy for storage failures
// Author:      Mike Stoffels
// Created:     2026-10-17
// License:     MIT
// ============================================================================

// Package dberr defines the stable, backend-independent storage errors that
// leave the transaction boundary. Each kind has a fixed code; the code is the
// contract callers map to exit codes or transport statuses.
package dberr

import (
	"encoding/json"
	"fmt"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
)

// Kind identifies the class of a domain error
type Kind string

const (
	KindGeneric        Kind = "DatabaseError"
	KindNotFound       Kind = "NotFoundError"
	KindConstraint     Kind = "ConstraintViolation"
	KindOptimisticLock Kind = "OptimisticLockError"
	KindConnection     Kind = "ConnectionError"
	KindTransaction    Kind = "TransactionError"
)

// Code returns the fixed code of the kind
func (k Kind) Code() mdwerror.Code {
	switch k {
	case KindNotFound:
		return mdwerror.CodeDBNotFound
	case KindConstraint:
		return mdwerror.CodeDBConstraint
	case KindOptimisticLock:
		return mdwerror.CodeDBOptimisticLock
	case KindConnection:
		return mdwerror.CodeDBConnection
	case KindTransaction:
		return mdwerror.CodeDBTransaction
	default:
		return mdwerror.CodeDBGeneric
	}
}

// UnknownConstraint is recorded when no backend signal names the constraint
const UnknownConstraint = "unknown"

// Details holds vendor-specific diagnostics
type Details map[string]any

// Error is a translated storage failure
type Error struct {
	message   string
	kind      Kind
	operation string
	code      mdwerror.Code
	details   Details
	cause     error

	// rollbackErr records a failed rollback during finalization
	rollbackErr error

	// sentinel errors match any error of the same kind in errors.Is
	sentinel bool
}

// Sentinels for errors.Is checks
var (
	ErrNotFound       = &Error{kind: KindNotFound, code: mdwerror.CodeDBNotFound, sentinel: true}
	ErrConstraint     = &Error{kind: KindConstraint, code: mdwerror.CodeDBConstraint, sentinel: true}
	ErrOptimisticLock = &Error{kind: KindOptimisticLock, code: mdwerror.CodeDBOptimisticLock, sentinel: true}
	ErrConnection     = &Error{kind: KindConnection, code: mdwerror.CodeDBConnection, sentinel: true}
	ErrTransaction    = &Error{kind: KindTransaction, code: mdwerror.CodeDBTransaction, sentinel: true}
)

// New creates a base error. An empty code becomes DB_GENERIC.
func New(message, operation string, code mdwerror.Code, details Details) *Error {
	if code == "" {
		code = mdwerror.CodeDBGeneric
	}
	return &Error{
		message:   message,
		kind:      kindOf(code),
		operation: operation,
		code:      code,
		details:   cloneDetails(details),
	}
}

// NotFound reports a missing resource. The id is appended to the message only
// when present.
func NotFound(resourceType, resourceID, operation string) *Error {
	if resourceType == "" {
		resourceType = "Resource"
	}

	message := fmt.Sprintf("%s not found", resourceType)
	details := Details{"resource_type": resourceType}
	if resourceID != "" {
		message += fmt.Sprintf(" (ID: %s)", resourceID)
		details["resource_id"] = resourceID
	}

	return New(message, operation, mdwerror.CodeDBNotFound, details)
}

// Constraint reports a uniqueness or referential integrity violation
func Constraint(constraintName, operation string, details Details) *Error {
	if constraintName == "" {
		constraintName = UnknownConstraint
	}

	err := New(fmt.Sprintf("Constraint violation: %s", constraintName), operation, mdwerror.CodeDBConstraint, details)
	err.details["constraint"] = constraintName
	return err
}

// OptimisticLock reports a row version mismatch
func OptimisticLock(resourceType, resourceID, operation string) *Error {
	if resourceType == "" {
		resourceType = "Resource"
	}

	details := Details{"resource_type": resourceType}
	if resourceID != "" {
		details["resource_id"] = resourceID
	}

	message := fmt.Sprintf("Conflict updating %s %s - data has changed", resourceType, resourceID)
	return New(message, operation, mdwerror.CodeDBOptimisticLock, details)
}

// Connection reports a dropped or refused connection
func Connection(operation string) *Error {
	return New("Database connection failed", operation, mdwerror.CodeDBConnection, nil)
}

// Transaction reports any other storage failure
func Transaction(operation string, details Details) *Error {
	return New("Transaction failed", operation, mdwerror.CodeDBTransaction, details)
}

func (k Kind) message() string {
	switch k {
	case KindNotFound:
		return "Resource not found"
	case KindConstraint:
		return "Constraint violation: " + UnknownConstraint
	case KindOptimisticLock:
		return "Conflict updating Resource - data has changed"
	case KindConnection:
		return "Database connection failed"
	case KindTransaction:
		return "Transaction failed"
	default:
		return "Database error"
	}
}

func kindOf(code mdwerror.Code) Kind {
	switch code {
	case mdwerror.CodeDBNotFound:
		return KindNotFound
	case mdwerror.CodeDBConstraint:
		return KindConstraint
	case mdwerror.CodeDBOptimisticLock:
		return KindOptimisticLock
	case mdwerror.CodeDBConnection:
		return KindConnection
	case mdwerror.CodeDBTransaction:
		return KindTransaction
	default:
		return KindGeneric
	}
}

func cloneDetails(details Details) Details {
	result := make(Details, len(details))
	for k, v := range details {
		result[k] = v
	}
	return result
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.operation != "" {
		return fmt.Sprintf("%s: %s [%s]", e.operation, e.message, e.code)
	}
	return fmt.Sprintf("%s [%s]", e.message, e.code)
}

// Unwrap returns the raw failure the error was translated from
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinels by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return t.kind == e.kind
}

// WithOperation returns a copy naming the logical unit of work that failed
func (e *Error) WithOperation(operation string) *Error {
	c := e.Copy()
	c.operation = operation
	return c
}

// WithCause returns a copy chaining the raw failure
func (e *Error) WithCause(cause error) *Error {
	c := e.Copy()
	c.cause = cause
	return c
}

// WithRollbackErr returns a copy recording a rollback failure. It does not
// change the error's kind, message or serialized form.
func (e *Error) WithRollbackErr(err error) *Error {
	c := e.Copy()
	c.rollbackErr = err
	return c
}

// Copy returns an independent error. Copying a sentinel yields a complete
// error of the same kind with the kind's generic message.
func (e *Error) Copy() *Error {
	if e.sentinel {
		c := New(e.kind.message(), "", e.code, nil)
		if e.kind == KindConstraint {
			c.details["constraint"] = UnknownConstraint
		}
		return c
	}
	c := *e
	c.details = cloneDetails(e.details)
	return &c
}

// IsSentinel reports whether e is one of the package sentinels
func (e *Error) IsSentinel() bool {
	return e.sentinel
}

// Message returns the human-readable message
func (e *Error) Message() string {
	return e.message
}

// Kind returns the error kind
func (e *Error) Kind() Kind {
	return e.kind
}

// Operation returns the name of the failed unit of work
func (e *Error) Operation() string {
	return e.operation
}

// Code returns the stable error code
func (e *Error) Code() mdwerror.Code {
	return e.code
}

// RollbackErr returns the rollback failure recorded during finalization, if any
func (e *Error) RollbackErr() error {
	return e.rollbackErr
}

// Details returns a copy of the diagnostics
func (e *Error) Details() Details {
	return cloneDetails(e.details)
}

// Detail returns a single diagnostic value
func (e *Error) Detail(key string) (any, bool) {
	v, ok := e.details[key]
	return v, ok
}

// Severity derives the severity from the code
func (e *Error) Severity() mdwerror.Severity {
	return mdwerror.GetSeverityFromCode(e.code)
}

// ToMap returns exactly {error, code, operation, details}
func (e *Error) ToMap() map[string]any {
	return map[string]any{
		"error":     e.message,
		"code":      string(e.code),
		"operation": e.operation,
		"details":   map[string]any(e.Details()),
	}
}

// MarshalJSON serializes ToMap; encoding/json orders map keys, so equal
// fields always produce equal bytes.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// Foundation converts the error for the foundation logger
func (e *Error) Foundation() *mdwerror.Error {
	fe := mdwerror.New(e.message).
		WithCode(e.code).
		WithOperation(e.operation).
		WithDetails(e.details).
		WithContext(string(e.kind))
	if e.cause != nil {
		fe = fe.WithCause(e.cause)
	}
	return fe
}
