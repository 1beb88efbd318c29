// File: codes.go
// Title: Error Code Definitions
// Description: Defines the stable error codes used across itemdb. The DB_* codes
//              are the contract surface of the storage error taxonomy; callers map
//              them to exit codes or transport statuses on their side.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-17 v0.2.0: Storage taxonomy codes, platform codes trimmed

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Storage taxonomy
	CodeDBGeneric        Code = "DB_GENERIC"
	CodeDBNotFound       Code = "DB_NOT_FOUND"
	CodeDBConstraint     Code = "DB_CONSTRAINT"
	CodeDBOptimisticLock Code = "DB_OPTIMISTIC_LOCK"
	CodeDBConnection     Code = "DB_CONNECTION"
	CodeDBTransaction    Code = "DB_TRANSACTION"

	// Configuration and programming contract
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeInvalidInput,
		CodeDBGeneric, CodeDBNotFound, CodeDBConstraint, CodeDBOptimisticLock,
		CodeDBConnection, CodeDBTransaction,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return true
	default:
		return false
	}
}

// IsDatabase reports whether the code belongs to the storage taxonomy
func (c Code) IsDatabase() bool {
	return c.Category() == "database"
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeDBGeneric, CodeDBNotFound, CodeDBConstraint, CodeDBOptimisticLock,
		CodeDBConnection, CodeDBTransaction:
		return "database"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeInvalidInput:
		return "validation"
	default:
		return "generic"
	}
}
