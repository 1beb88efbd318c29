package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/itemdb/foundation/core/log"
	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/item"
	"github.com/msto63/itemdb/internal/metrics"
	"github.com/msto63/itemdb/internal/session"
	"github.com/msto63/itemdb/internal/txscope"
	"github.com/msto63/itemdb/pkg/core/config"
	"github.com/msto63/itemdb/pkg/core/logging"
)

// app is the wiring shared by the item commands
type app struct {
	cfg      *config.Config
	logger   *mdwlog.Logger
	db       *sql.DB
	dialect  item.Dialect
	registry *prometheus.Registry
	service  *item.Service
}

func newApp(cmd *cobra.Command, migrate bool) (*app, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.NewLogger(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       level,
		Format:      cfg.Log.Format,
		Output:      cmd.ErrOrStderr(),
	})

	db, err := session.Open(session.Config{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		Path:           cfg.Database.Path,
		ConnectTimeout: cfg.Database.ConnectTimeout.Duration,
	})
	if err != nil {
		return nil, err
	}

	dialect := item.DialectFor(cfg.Database.Driver)
	if migrate && !cfg.Database.SkipMigrate {
		if err := item.Migrate(cmd.Context(), db, dialect); err != nil {
			db.Close()
			return nil, err
		}
	}

	var observer metrics.Observer = metrics.Nop{}
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled || showStats {
		observer = metrics.NewPrometheus(registry)
	}

	b := boundary.New(
		boundary.WithLogger(logger),
		boundary.WithObserver(observer),
	)
	scope := txscope.New(session.NewSQLFactory(db, nil),
		txscope.WithLogger(logger),
		txscope.WithObserver(observer),
	)
	repo := item.NewRepository(b, nil, dialect)

	logger.Debug("database opened", mdwlog.Fields{
		"driver":  cfg.Database.Driver,
		"dialect": string(dialect),
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		dialect:  dialect,
		registry: registry,
		service:  item.NewService(scope, repo),
	}, nil
}

// close prints the counters when --stats is set and closes the database
func (a *app) close(w io.Writer) {
	if showStats {
		lines, err := metrics.Summary(a.registry)
		if err != nil {
			a.logger.WarnWithErr("failed to gather stats", err)
		}
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}
	a.db.Close()
}

// withApp runs fn with a wired app and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close(cmd.ErrOrStderr())

	return fn(cmd.Context(), a)
}
