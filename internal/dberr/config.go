package dberr

import (
	"fmt"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
)

// ConfigError is a programming-contract violation, not a storage failure.
// It is always fatal and never retried.
type ConfigError struct {
	Operation string
	Reason    string
}

// ErrNoSession is returned when a unit of work is invoked without a session
var ErrNoSession = &ConfigError{Reason: "no session provided"}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: configuration error: %s", e.Operation, e.Reason)
	}
	return "configuration error: " + e.Reason
}

// Is matches configuration errors with the same reason
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	return ok && t.Reason == e.Reason
}

// Code returns CONFIG_ERROR
func (e *ConfigError) Code() mdwerror.Code {
	return mdwerror.CodeConfigError
}

// NoSession returns ErrNoSession bound to an operation
func NoSession(operation string) *ConfigError {
	return &ConfigError{Operation: operation, Reason: ErrNoSession.Reason}
}
