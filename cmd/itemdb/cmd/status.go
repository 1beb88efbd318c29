package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/itemdb/pkg/core/health"
	"github.com/msto63/itemdb/pkg/core/version"
)

var errUnhealthy = errors.New("database unhealthy")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the database is reachable and migrated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close(cmd.ErrOrStderr())

		registry := health.NewRegistry(a.cfg.General.Name, version.Version)
		registry.Register(health.PingCheck("database", a.db, time.Second))
		registry.Register(health.NewChecker("schema", func(ctx context.Context) health.CheckResult {
			var n int64
			if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
				return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
			}
			return health.CheckResult{
				Status:  health.StatusHealthy,
				Message: "items table present",
				Details: map[string]any{"items": n},
			}
		}))

		report := registry.Check(cmd.Context())
		if jsonOutput {
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", a.dialect, report.Status)
			for _, check := range report.Checks {
				fmt.Fprintf(out, "  %-8s %-9s %s\n", check.Name, check.Status, check.Message)
			}
		}

		if report.Status == health.StatusUnhealthy {
			return errUnhealthy
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
