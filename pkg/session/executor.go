package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTick is the drain interval used by Run when tick is zero.
const DefaultTick = 16 * time.Millisecond

// Executor is a task queue with a single draining owner. Post may be
// called from any goroutine; queued actions run in order on whichever
// goroutine calls Drain.
type Executor struct {
	logger *slog.Logger

	mu    sync.Mutex
	queue []func()

	// draining serializes Drain so actions never run concurrently.
	draining sync.Mutex
}

// NewExecutor creates an empty executor.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger.With("component", "session.executor")}
}

// Post queues fn.
func (e *Executor) Post(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.queue = append(e.queue, fn)
	e.mu.Unlock()
}

// Len returns the number of queued actions.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Drain runs every action queued at the time of the call and returns how
// many ran. Actions posted while draining wait for the next Drain.
// Concurrent calls run one after the other.
func (e *Executor) Drain() int {
	e.draining.Lock()
	defer e.draining.Unlock()

	e.mu.Lock()
	batch := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, fn := range batch {
		e.run(fn)
	}
	return len(batch)
}

func (e *Executor) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked", "panic", r)
		}
	}()
	fn()
}

// Run drains once per tick until ctx is done, then drains a final time.
func (e *Executor) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Drain()
			return
		case <-ticker.C:
			e.Drain()
		}
	}
}
