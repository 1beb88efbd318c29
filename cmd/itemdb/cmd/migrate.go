package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/itemdb/internal/item"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the items table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close(cmd.ErrOrStderr())

		if err := item.Migrate(cmd.Context(), a.db, a.dialect); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", a.dialect)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
