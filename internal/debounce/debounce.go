// Package debounce delays an action until input has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// Task is one scheduled firing. Exactly one of fire or cancel happens.
type Task struct {
	done  chan struct{}
	once  sync.Once
	fired bool
	timer *time.Timer
}

func (t *Task) settle(fired bool) bool {
	settled := false
	t.once.Do(func() {
		t.fired = fired
		settled = true
		close(t.done)
	})
	return settled
}

// Done is closed once the task fires or is cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles and reports whether it fired.
func (t *Task) Wait() bool {
	<-t.done
	return t.fired
}

// Cancel stops the task if it has not fired yet.
func (t *Task) Cancel() {
	if t.settle(false) {
		t.timer.Stop()
	}
}

// Debouncer keeps at most one pending task.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending *Task
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule cancels the pending task, if any, and starts a new one.
func (d *Debouncer) Schedule() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}

	t := &Task{done: make(chan struct{})}
	t.timer = time.AfterFunc(d.delay, func() {
		t.settle(true)
	})
	d.pending = t
	return t
}

// Cancel drops the pending task. Call it on teardown.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}
