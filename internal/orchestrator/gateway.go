package orchestrator

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aristath/prioritysync/internal/dispatch"
	"github.com/aristath/prioritysync/internal/events"
	"github.com/aristath/prioritysync/internal/taskapi"
)

// Gateway is a taskapi.Repository whose every call goes through the dispatcher.
// It is the only path from the sync to the remote API.
type Gateway struct {
	repo       taskapi.Repository
	dispatcher *dispatch.Dispatcher
	breaker    *gobreaker.CircuitBreaker
	retry      RetryConfig
	bus        *events.Bus
}

// NewGateway wraps repo so that its calls share the dispatcher's budget.
// bus may be nil.
func NewGateway(repo taskapi.Repository, d *dispatch.Dispatcher, retry RetryConfig, bus *events.Bus) *Gateway {
	return &Gateway{
		repo:       repo,
		dispatcher: d,
		breaker:    newBreaker("task-api"),
		retry:      retry,
		bus:        bus,
	}
}

// ListTasks lists one page of a column.
func (g *Gateway) ListTasks(ctx context.Context, columnID string, offset int) (taskapi.Page, error) {
	return gated(ctx, g, "list tasks", func(ctx context.Context) (taskapi.Page, error) {
		return g.repo.ListTasks(ctx, columnID, offset)
	})
}

// GetTask fetches one task.
func (g *Gateway) GetTask(ctx context.Context, id string) (taskapi.Task, error) {
	return gated(ctx, g, "get task", func(ctx context.Context) (taskapi.Task, error) {
		return g.repo.GetTask(ctx, id)
	})
}

// UpdateTaskLabels writes a task's full label map.
func (g *Gateway) UpdateTaskLabels(ctx context.Context, id string, labels map[string]string) error {
	_, err := gated(ctx, g, "update task", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.repo.UpdateTaskLabels(ctx, id, labels)
	})
	return err
}

// Shutdown stops the dispatcher; later calls fail as interrupted.
func (g *Gateway) Shutdown() {
	g.dispatcher.Shutdown()
}

// Stats exposes the dispatcher counters.
func (g *Gateway) Stats() dispatch.Stats {
	return g.dispatcher.Stats()
}

func gated[T any](ctx context.Context, g *Gateway, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := callWithRetry(ctx, g.breaker, g.retry, func() error {
		v, err := dispatch.Do(ctx, g.dispatcher, op, fn)
		g.publishCall(op, err)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, dispatch.Classify(op, err)
}

func (g *Gateway) publishCall(op string, err error) {
	if g.bus == nil {
		return
	}
	stats := g.dispatcher.Stats()
	g.bus.Publish(events.CallIssuedEvent{
		Op:        op,
		Issued:    stats.Issued,
		InUse:     stats.InUse,
		Budget:    stats.Budget,
		Err:       err,
		Timestamp: time.Now(),
	})
}
