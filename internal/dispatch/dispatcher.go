package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultWindow is the cooldown after which a used permit returns to the pool.
const DefaultWindow = 60 * time.Second

// Config configures a Dispatcher.
type Config struct {
	Budget      int           // Max calls issued within any rolling Window (default 1)
	Window      time.Duration // Permit cooldown (default 60s)
	MaxInFlight int           // Max calls executing at once (default 1)
}

// Stats is a point-in-time view of the dispatcher.
type Stats struct {
	Budget          int
	InUse           int   // permits checked out, waiting for their release
	Issued          int64 // calls handed to the remote so far
	PendingReleases int
}

// Call performs exactly one remote request.
type Call func(ctx context.Context) error

// Dispatcher lets many goroutines share a fixed per-window call budget.
//
// Every call takes one permit from a pool of Budget permits. The permit is
// returned Window after the call was issued, whatever its outcome, so no more
// than Budget calls can be issued inside any rolling Window. Calls are issued
// through a gate of MaxInFlight slots; with the default of one, remote calls
// never overlap.
type Dispatcher struct {
	cfg     Config
	permits *semaphore.Weighted
	gate    *semaphore.Weighted

	ctx    context.Context // cancelled by Shutdown
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	timers map[uint64]*time.Timer
	nextID uint64

	inUse  atomic.Int64
	issued atomic.Int64
}

// New creates a Dispatcher. Non-positive settings fall back to their defaults.
func New(cfg Config) *Dispatcher {
	if cfg.Budget <= 0 {
		cfg.Budget = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:     cfg,
		permits: semaphore.NewWeighted(int64(cfg.Budget)),
		gate:    semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		ctx:     ctx,
		cancel:  cancel,
		timers:  make(map[uint64]*time.Timer),
	}
}

// Submit runs call once budget allows it. It blocks while all permits are
// cooling down. Errors are returned as *Error; a permit is only consumed once
// the call has actually been issued.
func (d *Dispatcher) Submit(ctx context.Context, op string, call Call) error {
	if d.isClosed() {
		return &Error{Kind: KindInterrupted, Op: op, Err: ErrShutdown}
	}

	// Shutdown must wake callers parked on either semaphore.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	if err := d.permits.Acquire(ctx, 1); err != nil {
		return d.interrupted(op, err)
	}
	d.inUse.Add(1)

	if err := d.gate.Acquire(ctx, 1); err != nil {
		d.releasePermit()
		return d.interrupted(op, err)
	}
	defer d.gate.Release(1)

	if !d.scheduleRelease() {
		d.releasePermit()
		return &Error{Kind: KindInterrupted, Op: op, Err: ErrShutdown}
	}
	d.issued.Add(1)

	return Classify(op, call(ctx))
}

// Do is Submit for calls that return a value.
func Do[T any](ctx context.Context, d *Dispatcher, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := d.Submit(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// Shutdown rejects new submissions, wakes blocked callers and cancels all
// pending permit releases. Safe to call multiple times.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
	d.cancel()
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	pending := len(d.timers)
	d.mu.Unlock()

	return Stats{
		Budget:          d.cfg.Budget,
		InUse:           int(d.inUse.Load()),
		Issued:          d.issued.Load(),
		PendingReleases: pending,
	}
}

// Budget returns the configured per-window call budget.
func (d *Dispatcher) Budget() int {
	return d.cfg.Budget
}

// scheduleRelease arms the timer that returns the current permit after Window.
// It reports false once the dispatcher is shut down.
func (d *Dispatcher) scheduleRelease() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	id := d.nextID
	d.nextID++
	d.timers[id] = time.AfterFunc(d.cfg.Window, func() {
		d.mu.Lock()
		_, pending := d.timers[id]
		delete(d.timers, id)
		d.mu.Unlock()

		// Stopped by Shutdown after the timer already fired.
		if !pending {
			return
		}
		d.releasePermit()
	})
	return true
}

func (d *Dispatcher) releasePermit() {
	d.inUse.Add(-1)
	d.permits.Release(1)
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// interrupted reports an acquisition failure, naming shutdown when that was the cause.
func (d *Dispatcher) interrupted(op string, err error) error {
	if d.ctx.Err() != nil {
		err = ErrShutdown
	}
	return &Error{Kind: KindInterrupted, Op: op, Err: err}
}
