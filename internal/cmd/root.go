// Package cmd contains the taskflowctl admin commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow-api/internal/app"
	"github.com/yukikurage/taskflow-api/internal/config"
)

var (
	// Version is the current version of taskflowctl
	Version = "0.1.0"

	// loadConfig is replaced in tests.
	loadConfig = config.Load
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskflowctl",
	Short: "Administrative commands for the TaskFlow API",
	Long: `taskflowctl runs maintenance and reporting jobs against the TaskFlow
database using the same configuration as the API server (.env or environment).

Examples:
  taskflowctl seed-admin --email admin@example.com
  taskflowctl cleanup-admins
  taskflowctl report --period weekly --format pdf --out weekly.pdf
  taskflowctl remind
  taskflowctl weekly-report`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp builds the application for the duration of fn.
func withApp(fn func(a *app.App) error) error {
	a, err := app.New(loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
