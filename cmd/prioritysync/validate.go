package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aristath/prioritysync/internal/config"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and print the priority table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config:\n%w", err)
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) error {
	prio, err := cfg.PriorityTable()
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleMuted).
		Headers("RANK", "STATE", "ORDER")

	for i, state := range prio.States() {
		rank, _ := prio.Rank(state)
		t.Row(strconv.Itoa(i+1), state, strconv.Itoa(rank))
	}

	fmt.Fprintln(w, styleOK.Render("✓ config is valid"))
	fmt.Fprintf(w, "sticker:   %s\n", cfg.PriorityStickerID)
	fmt.Fprintf(w, "delayed:   %s\n", cfg.DelayedState)
	fmt.Fprintf(w, "columns:   %s\n", strings.Join(cfg.ColumnIDs, ", "))
	fmt.Fprintf(w, "budget:    %d requests per %v\n", cfg.RequestFrequency, time.Duration(cfg.Window))
	fmt.Fprintln(w, t.Render())
	return nil
}
