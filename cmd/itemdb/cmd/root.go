package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
	showStats  bool
)

var rootCmd = &cobra.Command{
	Use:   "itemdb",
	Short: "itemdb - item store with transactional error handling",
	Long: `itemdb manages named items in a SQL database.

Every command runs in its own transaction: it is committed on success and
rolled back on failure. Storage failures are reported as domain errors with
a stable code and a matching exit code:

  DB_NOT_FOUND        3
  DB_CONSTRAINT       4
  DB_OPTIMISTIC_LOCK  5
  DB_CONNECTION       6
  DB_TRANSACTION      7
  CONFIG_ERROR        78`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the process arguments and returns the exit code
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	resetFlags()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		printError(stderr, err)
	}
	return ExitCode(err)
}

// resetFlags restores flag variables between runs in the same process
func resetFlags() {
	cfgFile = ""
	verbose = false
	jsonOutput = false
	showStats = false
	expectedVersion = 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ITEMDB_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print transaction counters after the command")
}
