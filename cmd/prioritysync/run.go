package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aristath/prioritysync/internal/config"
	"github.com/aristath/prioritysync/internal/dispatch"
	"github.com/aristath/prioritysync/internal/events"
	"github.com/aristath/prioritysync/internal/orchestrator"
	"github.com/aristath/prioritysync/internal/taskapi"
	"github.com/aristath/prioritysync/internal/tui"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one priority sync (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func runSync(cmd *cobra.Command, opts *options) error {
	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config:\n%w", err)
	}

	bus := events.NewBus()
	defer bus.Close()

	runner, err := buildRunner(cfg, opts.dryRun, bus)
	if err != nil {
		return err
	}

	var summary *orchestrator.Summary
	if opts.tui {
		summary, err = runWithTUI(ctx, runner, bus)
	} else {
		summary, err = runner.Run(ctx)
	}

	printSummary(cmd.OutOrStdout(), summary, err)
	return err
}

// buildRunner wires the API client, dispatcher and gateway for one run.
func buildRunner(cfg *config.Config, dryRun bool, bus *events.Bus) (*orchestrator.Runner, error) {
	table, err := cfg.PriorityTable()
	if err != nil {
		return nil, fmt.Errorf("priority order: %w", err)
	}

	client := taskapi.NewClient(cfg.BaseURL, cfg.Token, taskapi.WithTimeout(time.Duration(cfg.RequestTimeout)))
	dispatcher := dispatch.New(dispatch.Config{
		Budget:      cfg.RequestFrequency,
		Window:      time.Duration(cfg.Window),
		MaxInFlight: cfg.MaxInFlight,
	})
	gateway := orchestrator.NewGateway(client, dispatcher, retryConfig(cfg.Retry), bus)

	return orchestrator.NewRunner(orchestrator.RunnerConfig{
		ColumnIDs:    cfg.ColumnIDs,
		LabelKey:     cfg.PriorityStickerID,
		DelayedState: cfg.DelayedState,
		Table:        table,
		Concurrency:  cfg.Concurrency,
		DryRun:       dryRun,
	}, gateway, bus), nil
}

func retryConfig(rc config.RetryConfig) orchestrator.RetryConfig {
	retry := orchestrator.DefaultRetryConfig()
	retry.MaxRetries = rc.MaxRetries
	if rc.InitialInterval > 0 {
		retry.InitialInterval = time.Duration(rc.InitialInterval)
	}
	if rc.MaxInterval > 0 {
		retry.MaxInterval = time.Duration(rc.MaxInterval)
	}
	return retry
}

// runWithTUI runs the sync in the background while the TUI renders its events.
// Quitting the TUI cancels the run.
func runWithTUI(ctx context.Context, runner *orchestrator.Runner, bus *events.Bus) (*orchestrator.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Log lines would tear the TUI layout.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	model := tui.New(bus, cancel)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	type result struct {
		summary *orchestrator.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := runner.Run(ctx)
		done <- result{summary, err}
	}()

	if _, err := p.Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Printf("TUI exit error: %v", err)
	}
	cancel()

	r := <-done
	return r.summary, r.err
}

var (
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	styleFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func printSummary(w io.Writer, s *orchestrator.Summary, err error) {
	if s == nil {
		return
	}

	fmt.Fprintf(w, "%s run %s: %d columns, %d root tasks, %d tasks in %v\n",
		styleMuted.Render("•"), s.RunID, s.Columns, s.Roots, s.Nodes, s.Duration.Round(time.Millisecond))

	for _, u := range s.Updates {
		fmt.Fprintln(w, "  "+tui.FormatUpdate(tui.UpdateLine{
			TaskID:  u.TaskID,
			Title:   u.Title,
			From:    u.From,
			To:      u.To,
			Written: !s.DryRun,
		}))
	}

	switch {
	case err != nil:
		fmt.Fprintln(w, styleFailed.Render(fmt.Sprintf("✗ %d of %d updates written before the run stopped", s.Applied, len(s.Updates))))
	case s.DryRun:
		fmt.Fprintln(w, styleOK.Render(fmt.Sprintf("✓ dry run: %d updates needed", len(s.Updates))))
	case len(s.Updates) == 0:
		fmt.Fprintln(w, styleOK.Render("✓ all priorities up to date"))
	default:
		fmt.Fprintln(w, styleOK.Render(fmt.Sprintf("✓ %d updates written", s.Applied)))
	}
}
