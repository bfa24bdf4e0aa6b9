package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "haulsim",
	Short: "Discrete-event simulator for mine haul trucks and unload stations",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setLogLevel parses and applies the --log flag.
func setLogLevel(cmd *cobra.Command) {
	name, _ := cmd.Flags().GetString("log")
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// init sets up CLI flags and subcommands
func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)

	historyCmd.Flags().String("db", "", "SQLite path or postgres:// DSN (default $"+envDB+")")
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 lists all)")
	historyCmd.Flags().String("env-file", defaultEnvFile, "Path to a .env file (missing file is ignored)")
	historyCmd.Flags().String("log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.AddCommand(historyCmd)
}
