package item

import (
	"context"
	"database/sql"
	"fmt"
)

var schemas = map[Dialect]string{
	DialectSQLite: `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT items_name_key UNIQUE (name)
	)`,
	DialectPostgres: `
	CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT items_name_key UNIQUE (name)
	)`,
	DialectMySQL: `
	CREATE TABLE IF NOT EXISTS items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		CONSTRAINT items_name_key UNIQUE (name)
	) ENGINE=InnoDB`,
}

// Migrate creates the items table if it does not exist
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema, ok := schemas[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
