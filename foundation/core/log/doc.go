// Package log provides structured logging for itemdb.
//
// Package: log
// Title: itemdb Structured Logging
// Description: Leveled, structured logger with JSON and text output. Loggers are
//              immutable: every With* call returns a clone, so a logger enriched
//              with a correlation id can be handed to a single unit of work
//              without affecting other callers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-17 v0.2.0: Async buffer, timers, console and logfmt formats removed
//
// Usage:
//   logger := log.NewWithConfig(log.Config{Level: log.LevelInfo, Format: log.FormatText})
//   logger.WithCorrelationID(unitID).Warn("Rolled back transaction", log.String("operation", "get_item"))
//
//   // Foundation errors are logged with code, severity and details
//   logger.LogError(err)
package log
