package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/itemdb/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), info)
		}
		fmt.Fprint(cmd.OutOrStdout(), info.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
