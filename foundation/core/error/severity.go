// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels drive the log level the foundation logger picks
//              for an error (see log.Logger.LogError).
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-17 v0.2.0: Severity table for the storage codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates an expected outcome such as a missing row
	SeverityLow Severity = iota

	// SeverityMedium indicates a failed operation the caller can act on
	SeverityMedium

	// SeverityHigh indicates an infrastructure problem such as a lost connection
	SeverityHigh

	// SeverityCritical indicates the process cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityCritical

	case CodeDBConnection, CodeDBTransaction, CodeInternal:
		return SeverityHigh

	case CodeDBConstraint, CodeDBOptimisticLock, CodeDBGeneric:
		return SeverityMedium

	case CodeDBNotFound, CodeInvalidInput:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
