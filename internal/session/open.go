package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config selects and addresses the database
type Config struct {
	// Driver is one of sqlite3, pgx, postgres, mysql
	Driver string

	// DSN is the connection string for server databases
	DSN string

	// Path is the SQLite database file
	Path string

	// ConnectTimeout bounds the initial ping. Zero means 5s.
	ConnectTimeout time.Duration
}

// Open opens the configured database and verifies it is reachable
func Open(cfg Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		db, err = openSQLite(cfg.Path)
	case DriverPgx, DriverPostgres, DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("driver %s requires a dsn", cfg.Driver)
		}
		db, err = sql.Open(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "./itemdb.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open(DriverSQLite, path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// A single writer avoids SQLITE_BUSY between concurrent sessions
	db.SetMaxOpenConns(1)
	return db, nil
}
