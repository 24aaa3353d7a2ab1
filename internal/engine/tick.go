// Package engine provides the tick loop that drives the network service.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultInterval   = 5 * time.Second // status update cadence
	DefaultBlockEvery = 6               // ticks per block, 30 s at the default interval
)

// Engine drives the service forward.
type Engine struct {
	Interval   time.Duration // Tick interval
	BlockEvery uint64        // Mine a block every N ticks (0 disables)

	// Callbacks, populated during setup. OnBlock runs after OnTick on the
	// same tick.
	OnTick  func(tick uint64)
	OnBlock func(tick uint64)

	tick    atomic.Uint64
	running atomic.Bool
	stop    chan struct{}
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:   DefaultInterval,
		BlockEvery: DefaultBlockEvery,
		stop:       make(chan struct{}, 1),
	}
}

// Tick returns the most recently completed tick.
func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

// SetTick sets the tick counter, used to resume from a persisted tick.
// Call it before Run.
func (e *Engine) SetTick(tick uint64) {
	e.tick.Store(tick)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run steps immediately and then once per Interval. Blocks until Stop is
// called or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	defer e.running.Store(false)

	// Drop a Stop issued while idle.
	select {
	case <-e.stop:
	default:
	}

	interval := e.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	slog.Info("engine started", "tick", e.Tick(), "interval", interval, "block_every", e.BlockEvery)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.step()
	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped", "tick", e.Tick(), "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("engine stopped", "tick", e.Tick())
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// Stop halts the loop. It is safe to call when the engine is not running.
func (e *Engine) Stop() {
	select {
	case e.stop <- struct{}{}:
	default:
	}
}

// step advances by one tick.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if e.BlockEvery > 0 && tick%e.BlockEvery == 0 && e.OnBlock != nil {
		e.OnBlock(tick)
	}
}
