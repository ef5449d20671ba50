// Package lifecycle coordinates startup hooks, shutdown hooks, and readiness
// probes for long-running subsystems.
package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Probe reports whether a subsystem can serve traffic.
type Probe func() bool

// Coordinator owns the service context and the hooks registered against it.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	started  atomic.Bool

	mu     sync.RWMutex
	probes map[string]Probe
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		probes: make(map[string]Probe),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently with the other startup hooks.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn on its own goroutine. Hooks block on <-Context().Done()
// before cleaning up; Shutdown waits for every hook to return.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Probe registers a named readiness check. A later registration under the
// same name replaces the earlier one.
func (c *Coordinator) Probe(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

// Ready reports true once startup has completed and every probe passes.
func (c *Coordinator) Ready() bool {
	return c.started.Load() && len(c.Pending()) == 0
}

// Pending lists the probes currently failing, sorted by name.
func (c *Coordinator) Pending() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var failing []string
	for name, p := range c.probes {
		if !p() {
			failing = append(failing, name)
		}
	}
	slices.Sort(failing)
	return failing
}

// WaitForStartup blocks until all startup hooks return.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.started.Store(true)
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
