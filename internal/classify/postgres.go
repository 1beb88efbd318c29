package classify

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/msto63/itemdb/internal/dberr"
)

// SQLSTATE classes and codes
const (
	pgClassIntegrity  = "23"
	pgClassConnection = "08"

	pgAdminShutdown = "57P01"
	pgCrashShutdown = "57P02"
	pgCannotConnect = "57P03"
)

// Postgres translates pgx and lib/pq failures. Both drivers expose the
// server's SQLSTATE and constraint name.
type Postgres struct{}

// Name returns "postgres"
func (Postgres) Name() string { return "postgres" }

// Classify recognizes *pgconn.PgError, *pgconn.ConnectError and *pq.Error
func (Postgres) Classify(raw error) (Result, bool) {
	var pgErr *pgconn.PgError
	if errors.As(raw, &pgErr) {
		return classifySQLState(pgErr.Code, pgErr.ConstraintName), true
	}

	var pqErr *pq.Error
	if errors.As(raw, &pqErr) {
		return classifySQLState(string(pqErr.Code), pqErr.Constraint), true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(raw, &connectErr) {
		return Result{Kind: dberr.KindConnection, Details: dberr.Details{}}, true
	}

	return Result{}, false
}

func classifySQLState(code, constraint string) Result {
	details := dberr.Details{"pgcode": code}

	switch {
	case strings.HasPrefix(code, pgClassIntegrity):
		return constraintResult(constraint, details)
	case strings.HasPrefix(code, pgClassConnection),
		code == pgAdminShutdown, code == pgCrashShutdown, code == pgCannotConnect:
		return Result{Kind: dberr.KindConnection, Details: details}
	default:
		return Result{Kind: dberr.KindTransaction, Details: details}
	}
}
