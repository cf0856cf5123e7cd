package hdmiswitch

import (
	"sync"
	"time"
)

// DeadlineTimer is a re-armable one-shot deadline. When it fires it calls
// the interrupt hook so that a blocked Read or Write returns.
type DeadlineTimer struct {
	interrupt func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	expired bool
}

// NewDeadlineTimer returns a disarmed timer. interrupt may be nil.
func NewDeadlineTimer(interrupt func()) *DeadlineTimer {
	return &DeadlineTimer{interrupt: interrupt}
}

// Arm starts a new deadline window, replacing any pending one.
func (d *DeadlineTimer) Arm(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.expired = false

	gen := d.gen
	d.timer = time.AfterFunc(timeout, func() { d.fire(gen) })
}

// Disarm cancels the pending deadline. It has no effect once it has fired.
func (d *DeadlineTimer) Disarm() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
}

// Expired reports whether the current window ran out.
func (d *DeadlineTimer) Expired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.expired
}

// stopLocked bumps the generation so a callback already in flight for the
// previous window is ignored.
func (d *DeadlineTimer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *DeadlineTimer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.expired = true
	d.timer = nil
	d.mu.Unlock()

	if d.interrupt != nil {
		d.interrupt()
	}
}
