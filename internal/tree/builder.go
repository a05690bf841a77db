package tree

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/prioritysync/internal/taskapi"
)

// Repository is the read side of the task API the builder needs.
type Repository interface {
	ListTasks(ctx context.Context, columnID string, offset int) (taskapi.Page, error)
	GetTask(ctx context.Context, id string) (taskapi.Task, error)
}

// Builder turns a column listing into trees of active tasks.
type Builder struct {
	repo        Repository
	filter      Filter
	concurrency int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConcurrency bounds how many sibling subtasks are requested at once.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(repo Repository, filter Filter, opts ...BuilderOption) *Builder {
	b := &Builder{
		repo:        repo,
		filter:      filter,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ancestry is the chain of task ids from a root down to the current node.
type ancestry struct {
	id     string
	parent *ancestry
}

func (a *ancestry) push(id string) *ancestry {
	return &ancestry{id: id, parent: a}
}

func (a *ancestry) contains(id string) bool {
	for p := a; p != nil; p = p.parent {
		if p.id == id {
			return true
		}
	}
	return false
}

// BuildColumn fetches every task of a column and returns the active ones as
// roots, each carrying its active descendants. Inactive tasks are dropped
// together with their subtrees. Subtasks that no longer exist are skipped.
func (b *Builder) BuildColumn(ctx context.Context, columnID string) ([]*Node, error) {
	tasks, err := b.listColumn(ctx, columnID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Node, 0, len(tasks))
	for _, task := range tasks {
		node := FromTask(task)
		if b.filter.Active(node) {
			candidates = append(candidates, node)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, root := range candidates {
		root := root
		g.Go(func() error {
			children, err := b.resolveChildren(gctx, root.subtaskIDs, &ancestry{id: root.ID})
			if err != nil {
				return err
			}
			root.Children = children
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building column %s: %w", columnID, err)
	}
	return candidates, nil
}

// listColumn accumulates pages until the API reports there is no next one.
func (b *Builder) listColumn(ctx context.Context, columnID string) ([]taskapi.Task, error) {
	var tasks []taskapi.Task
	offset := 0
	for {
		page, err := b.repo.ListTasks(ctx, columnID, offset)
		if err != nil {
			return nil, fmt.Errorf("listing column %s: %w", columnID, err)
		}
		tasks = append(tasks, page.Content...)

		// An empty page that still claims a successor would loop forever.
		if !page.Paging.Next || len(page.Content) == 0 {
			return tasks, nil
		}
		offset = page.NextOffset()
	}
}

// resolveChildren fetches the given subtasks concurrently, keeping their order.
func (b *Builder) resolveChildren(ctx context.Context, ids []string, path *ancestry) ([]*Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resolved := make([]*Node, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, id := range ids {
		if path.contains(id) {
			log.Printf("WARNING: task %q lists ancestor %q as a subtask, skipping", path.id, id)
			continue
		}
		i, id := i, id
		g.Go(func() error {
			node, err := b.resolve(gctx, id, path)
			resolved[i] = node
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	children := make([]*Node, 0, len(ids))
	for _, n := range resolved {
		if n != nil {
			children = append(children, n)
		}
	}
	return children, nil
}

// resolve fetches one subtask and its subtree. It returns nil, nil when the
// subtask is missing or inactive.
func (b *Builder) resolve(ctx context.Context, id string, path *ancestry) (*Node, error) {
	task, err := b.repo.GetTask(ctx, id)
	if errors.Is(err, taskapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	node := FromTask(task)
	if !b.filter.Active(node) {
		return nil, nil
	}

	children, err := b.resolveChildren(ctx, node.subtaskIDs, path.push(id))
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}
