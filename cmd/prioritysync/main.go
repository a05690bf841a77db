package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/prioritysync/internal/config"
	"github.com/aristath/prioritysync/internal/dispatch"
)

// Exit codes
const (
	exitCritical    = 1
	exitInterrupted = 130
)

// options holds the flags shared by all commands.
type options struct {
	projectConfig string
	globalConfig  string
	dryRun        bool
	tui           bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "prioritysync",
		Short: "Propagate the most urgent subtask priority up to parent tasks",
		Long: `prioritysync scans the configured board columns, works out for every parent task
the most urgent priority among its active subtasks and writes it back, staying
within the API request budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	globalPath, projectPath, err := config.DefaultPaths()
	if err != nil {
		globalPath = ""
		projectPath = ".prioritysync/config.json"
	}

	rootCmd.PersistentFlags().StringVar(&opts.projectConfig, "config", projectPath, "project config file")
	rootCmd.PersistentFlags().StringVar(&opts.globalConfig, "global-config", globalPath, "global config file (empty to skip)")
	addRunFlags(rootCmd, opts)

	// Add subcommands
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))

	return rootCmd
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "compute priority updates without writing them")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live progress in a terminal UI")
}

// loadConfig loads the layered configuration named by the flags.
func (o *options) loadConfig() (*config.Config, error) {
	return config.Load(o.globalConfig, o.projectConfig)
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, dispatch.ErrInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return exitInterrupted
	}
	return exitCritical
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
