// Package agentctl holds the stop/pause/resume control state for the
// automation agent. One Control is shared between the transport handlers
// that flip it and the agent loop that polls it.
package agentctl

import (
	"sync"

	"github.com/graphitebrowser/graphite/schema"
)

// Control coordinates one running agent task. The zero value is not ready;
// use New.
type Control struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	paused  bool
	stopped bool
}

// New constructs an idle, unpaused control.
func New() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Reset arms the control for a fresh task.
func (c *Control) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.paused = false
	c.stopped = false
	c.cond.Broadcast()
}

// Stop requests the task to end. A paused task is resumed first so the stop
// can take effect.
func (c *Control) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.paused = false
	c.cond.Broadcast()
}

// Pause suspends the task at its next checkpoint.
func (c *Control) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume releases a paused task.
func (c *Control) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.cond.Broadcast()
}

// ShouldStop is the agent loop's checkpoint: it blocks while paused and
// reports whether a stop was requested.
func (c *Control) ShouldStop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.paused && !c.stopped {
		c.cond.Wait()
	}
	return c.stopped
}

// Finish marks the task as done and clears the stop request.
func (c *Control) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.stopped = false
	c.paused = false
	c.cond.Broadcast()
}

// Status reports the control state.
func (c *Control) Status() schema.AgentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schema.AgentStatus{Running: c.running, Paused: c.paused}
}
