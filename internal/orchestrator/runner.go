package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/prioritysync/internal/events"
	"github.com/aristath/prioritysync/internal/priority"
	"github.com/aristath/prioritysync/internal/taskapi"
	"github.com/aristath/prioritysync/internal/tree"
)

// Remote is the dispatcher-gated task API a Runner works against.
type Remote interface {
	taskapi.Repository
	Shutdown()
}

// RunnerConfig configures a sync run.
type RunnerConfig struct {
	ColumnIDs    []string        // Columns to scan, in order
	LabelKey     string          // Sticker holding the priority
	DelayedState string          // State that removes a task from consideration
	Table        *priority.Table // Known priority states
	Concurrency  int             // Concurrent subtask lookups per level (default 4)
	DryRun       bool            // Compute updates without writing them
}

// Update describes one priority label rewrite.
type Update struct {
	TaskID string
	Title  string
	From   string
	To     string
}

// Summary is the outcome of a run.
type Summary struct {
	RunID    string
	Columns  int
	Roots    int
	Nodes    int
	Updates  []Update
	Applied  int
	DryRun   bool
	Duration time.Duration
}

// Runner scans the configured columns, aggregates priorities and writes back
// every label that changed.
type Runner struct {
	config     RunnerConfig
	remote     Remote
	bus        *events.Bus
	builder    *tree.Builder
	aggregator *tree.Aggregator
}

// NewRunner creates a new runner. bus may be nil.
func NewRunner(cfg RunnerConfig, remote Remote, bus *events.Bus) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	filter := tree.Filter{LabelKey: cfg.LabelKey, DelayedState: cfg.DelayedState}
	return &Runner{
		config:     cfg,
		remote:     remote,
		bus:        bus,
		builder:    tree.NewBuilder(remote, filter, tree.WithConcurrency(cfg.Concurrency)),
		aggregator: tree.NewAggregator(cfg.Table, cfg.LabelKey),
	}
}

// Run performs one complete sync. Any error stops the run and shuts the remote
// down; updates computed but not yet written are dropped and the next run
// recomputes them. The remote is shut down when Run returns in every case.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:  uuid.New().String(),
		DryRun: r.config.DryRun,
	}
	defer r.remote.Shutdown()

	r.bus.Publish(events.RunStartedEvent{
		RunID:     summary.RunID,
		Columns:   append([]string(nil), r.config.ColumnIDs...),
		DryRun:    r.config.DryRun,
		Timestamp: start,
	})

	err := r.run(ctx, summary)
	summary.Duration = time.Since(start)

	r.bus.Publish(events.RunFinishedEvent{
		RunID:     summary.RunID,
		Updates:   len(summary.Updates),
		Applied:   summary.Applied,
		Err:       err,
		Duration:  summary.Duration,
		Timestamp: time.Now(),
	})

	if err != nil {
		log.Printf("ERROR: run %s aborted: %v", summary.RunID, err)
		return summary, err
	}
	return summary, nil
}

func (r *Runner) run(ctx context.Context, summary *Summary) error {
	roots, err := r.Build(ctx, summary)
	if err != nil {
		return err
	}

	changes := r.aggregator.CollectChanges(roots)
	for _, c := range changes {
		summary.Updates = append(summary.Updates, Update{
			TaskID: c.Node.ID,
			Title:  c.Node.Title,
			From:   c.From,
			To:     c.To,
		})
	}

	if r.config.DryRun {
		for _, c := range changes {
			r.publishUpdate(summary.RunID, c, false)
		}
		return nil
	}

	applied, err := r.Apply(ctx, summary.RunID, changes)
	summary.Applied = applied
	return err
}

// Build scans every configured column and returns all root trees.
func (r *Runner) Build(ctx context.Context, summary *Summary) ([]*tree.Node, error) {
	var roots []*tree.Node
	for _, columnID := range r.config.ColumnIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		columnRoots, err := r.builder.BuildColumn(ctx, columnID)
		if err != nil {
			r.remote.Shutdown()
			return nil, err
		}

		nodes := tree.Count(columnRoots)
		summary.Columns++
		summary.Roots += len(columnRoots)
		summary.Nodes += nodes

		r.bus.Publish(events.ColumnScannedEvent{
			RunID:     summary.RunID,
			ColumnID:  columnID,
			Roots:     len(columnRoots),
			Nodes:     nodes,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		})
		roots = append(roots, columnRoots...)
	}
	return roots, nil
}

// Apply writes each changed node's full label map, one call per node.
// It stops at the first failure and returns how many writes succeeded.
func (r *Runner) Apply(ctx context.Context, runID string, changes []tree.Change) (int, error) {
	applied := 0
	for _, c := range changes {
		if err := r.remote.UpdateTaskLabels(ctx, c.Node.ID, c.Node.Labels); err != nil {
			r.remote.Shutdown()
			return applied, fmt.Errorf("writing priority of task %s: %w", c.Node.ID, err)
		}
		applied++
		r.publishUpdate(runID, c, true)
	}
	return applied, nil
}

func (r *Runner) publishUpdate(runID string, c tree.Change, written bool) {
	r.bus.Publish(events.TaskUpdatedEvent{
		RunID:     runID,
		ID:        c.Node.ID,
		Title:     c.Node.Title,
		From:      c.From,
		To:        c.To,
		Written:   written,
		Timestamp: time.Now(),
	})
}
