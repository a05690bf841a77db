package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/prioritysync/internal/tui"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or edit a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			model := tui.NewSettingsModel(cfg, opts.globalConfig, opts.projectConfig)
			final, err := tea.NewProgram(model).Run()
			if err != nil {
				return fmt.Errorf("settings form: %w", err)
			}

			settings, ok := final.(tui.SettingsModel)
			if !ok || settings.Aborted() {
				return nil
			}
			if _, _, err := settings.Result(); err != nil {
				return err
			}
			return nil
		},
	}
}
