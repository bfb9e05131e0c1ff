// Package safety implements the halt controller that enforces a
// "state is valid or the simulator halts" contract, plus an OS-signal
// interrupt path (WatchInterrupt). Grounded on
// pkg/emergency/controller.go's stop-channel/callback pattern, repurposed
// from "OS signal / stop file" triggers to "StateInvariantRegression
// detected mid-tick" triggers, and extended to also watch OS signals. The
// cmd/vanet-sim driver does not call WatchInterrupt.
package safety

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Controller tracks whether the simulator has been halted and runs
// registered callbacks exactly once when that happens.
type Controller struct {
	mu        sync.RWMutex
	halted    bool
	haltCh    chan struct{}
	reason    string
	callbacks []func(reason string)
}

// New creates a running (not-halted) controller.
func New() *Controller {
	return &Controller{haltCh: make(chan struct{})}
}

// Halt triggers a halt with the given reason. Idempotent: only the first
// call executes callbacks.
func (c *Controller) Halt(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted {
		return
	}
	c.halted = true
	c.reason = reason
	close(c.haltCh)
	for _, cb := range c.callbacks {
		cb(reason)
	}
}

// IsHalted reports whether Halt has been called.
func (c *Controller) IsHalted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.halted
}

// Reason returns the halt reason, or "" if not halted.
func (c *Controller) Reason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reason
}

// HaltChannel returns a channel that closes when Halt is called.
func (c *Controller) HaltChannel() <-chan struct{} {
	return c.haltCh
}

// OnHalt registers a callback invoked (once) when Halt triggers.
func (c *Controller) OnHalt(cb func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// WatchInterrupt halts the controller on SIGINT/SIGTERM. It returns once
// ctx is done or a signal arrives.
func (c *Controller) WatchInterrupt(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return
	case sig := <-sigCh:
		c.Halt(fmt.Sprintf("signal: %v", sig))
	}
}
