// Package item implements the item store: CRUD units of work that run inside
// the transaction boundary, and a service that gives each call its own
// transaction scope.
package item

import (
	"strconv"
	"strings"
	"time"

	"github.com/msto63/itemdb/internal/session"
)

// Item is a named record with an optimistic-locking version
type Item struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Version     int64     `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateParams holds the fields of a new item
type CreateParams struct {
	Name        string
	Description string
}

// UpdateParams selects an item and the fields to change. Nil fields are
// kept. A zero Version skips the version check.
type UpdateParams struct {
	ID          int64
	Name        *string
	Description *string
	Version     int64
}

// Dialect selects the SQL flavour of the backing database
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) Dialect {
	switch driver {
	case session.DriverPgx, session.DriverPostgres:
		return DialectPostgres
	case session.DriverMySQL:
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// returning reports whether INSERT ... RETURNING is available
func (d Dialect) returning() bool {
	return d != DialectMySQL
}
