package history

import (
	"sync"
	"time"
)

// DefaultCheckpointDelay is the quiet period before a burst of edits is
// recorded.
const DefaultCheckpointDelay = time.Second

// Checkpointer coalesces bursts of Touch calls into one call of fn after
// delay of inactivity.
type Checkpointer struct {
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
	mutex   sync.Mutex
}

// NewCheckpointer creates a Checkpointer. A non-positive delay uses
// DefaultCheckpointDelay.
func NewCheckpointer(delay time.Duration, fn func()) *Checkpointer {
	if delay <= 0 {
		delay = DefaultCheckpointDelay
	}
	return &Checkpointer{delay: delay, fn: fn}
}

// Touch marks an edit and restarts the quiet window.
func (c *Checkpointer) Touch() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped {
		return
	}
	c.pending = true

	// Reset timer
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush runs fn now if an edit is pending.
func (c *Checkpointer) Flush() {
	c.mutex.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	run := c.pending && !c.stopped
	c.pending = false
	c.mutex.Unlock()

	if run {
		c.fn()
	}
}

// Pending reports whether an edit is waiting to be checkpointed.
func (c *Checkpointer) Pending() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pending
}

// Stop cancels any pending checkpoint. Later Touch calls are ignored.
func (c *Checkpointer) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stopped = true
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Checkpointer) fire() {
	c.mutex.Lock()
	run := c.pending && !c.stopped
	c.pending = false
	c.timer = nil
	c.mutex.Unlock()

	if run {
		c.fn()
	}
}
