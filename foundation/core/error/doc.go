// Package error provides the structured error type shared by all itemdb packages.
//
// Package: error
// Title: itemdb Error Handling Framework
// Description: This package implements a structured error with a stable code, a
//              severity, an operation name and a details map. Storage errors raised
//              by the transaction boundary are converted to it before they reach the
//              logger, so every log line carries the same code and severity fields.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-17 v0.2.0: Database code set (DB_*), stack traces and localization removed
//
// Usage:
//   import mdwerror "github.com/msto63/itemdb/foundation/core/error"
//
//   err := mdwerror.New("Database connection failed").
//     WithCode(mdwerror.CodeDBConnection).
//     WithOperation("update_item").
//     WithDetail("host", "localhost:5432")
//
//   if mdwerror.HasCode(err, mdwerror.CodeDBConnection) {
//     // connection handling
//   }
package error
