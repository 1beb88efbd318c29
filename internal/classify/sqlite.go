package classify

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/msto63/itemdb/internal/dberr"
)

var sqliteConstraintNames = map[sqlite3.ErrNoExtended]string{
	sqlite3.ErrConstraintUnique:     "UNIQUE",
	sqlite3.ErrConstraintPrimaryKey: "PRIMARY KEY",
	sqlite3.ErrConstraintForeignKey: "FOREIGN KEY",
	sqlite3.ErrConstraintNotNull:    "NOT NULL",
	sqlite3.ErrConstraintCheck:      "CHECK",
}

// SQLite translates go-sqlite3 failures using the extended result code
type SQLite struct{}

// Name returns "sqlite"
func (SQLite) Name() string { return "sqlite" }

// Classify recognizes sqlite3.Error values
func (SQLite) Classify(raw error) (Result, bool) {
	var liteErr sqlite3.Error
	if !errors.As(raw, &liteErr) {
		return Result{}, false
	}

	details := dberr.Details{
		"sqlite_code":          int(liteErr.Code),
		"sqlite_extended_code": int(liteErr.ExtendedCode),
	}

	switch liteErr.Code {
	case sqlite3.ErrConstraint:
		if columns := sqliteColumns(liteErr.Error()); columns != "" {
			details["columns"] = columns
		}
		return constraintResult(sqliteConstraintNames[liteErr.ExtendedCode], details), true
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return Result{Kind: dberr.KindConnection, Details: details}, true
	default:
		return Result{Kind: dberr.KindTransaction, Details: details}, true
	}
}

// sqliteColumns extracts "items.name" from "UNIQUE constraint failed: items.name"
func sqliteColumns(message string) string {
	_, columns, found := strings.Cut(message, "constraint failed: ")
	if !found {
		return ""
	}
	return strings.TrimSpace(columns)
}
