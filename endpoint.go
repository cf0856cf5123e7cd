package hdmiswitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrCancelled is returned by Endpoint.Read and Endpoint.Write when the
// deadline fired before the call completed.
var ErrCancelled = errors.New("timed out")

// OpenError reports a device that could not be opened or configured.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening serial port %s: %s", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// IOError is a read or write failure that is neither end of stream nor a
// cancellation.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Endpoint is one open handle on the switch, guarded by its own deadline.
type Endpoint struct {
	Path string

	port     Port
	deadline *DeadlineTimer
	once     sync.Once
	closeErr error
}

// Open opens path through d.
func Open(d Driver, path string) (*Endpoint, error) {
	port, err := d.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	e := &Endpoint{Path: path, port: port}
	e.deadline = NewDeadlineTimer(e.interrupt)

	return e, nil
}

// Arm starts a deadline window covering all subsequent calls until it is
// re-armed or disarmed.
func (e *Endpoint) Arm(timeout time.Duration) {
	e.deadline.Arm(timeout)
}

// Disarm cancels the pending deadline.
func (e *Endpoint) Disarm() {
	e.deadline.Disarm()
}

// Write sends frame in full. A complete write succeeds even if the deadline
// fired while it was in flight.
func (e *Endpoint) Write(frame []byte) (int, error) {
	n, err := e.port.Write(frame)
	if err == nil && n == len(frame) {
		return n, nil
	}
	if e.deadline.Expired() {
		return n, ErrCancelled
	}
	if err != nil {
		return n, &IOError{Op: "write", Err: err}
	}
	return n, &IOError{Op: "write", Err: io.ErrShortWrite}
}

// Read reads whatever is available into p. It returns io.EOF when the line
// was dropped and ErrCancelled when the deadline fired first. A positive
// count is always returned with a nil error.
func (e *Endpoint) Read(p []byte) (int, error) {
	for {
		n, err := e.port.Read(p)
		if n > 0 {
			return n, nil
		}

		switch {
		case e.deadline.Expired():
			return 0, ErrCancelled
		case errors.Is(err, ErrPollTimeout):
			continue
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, ErrPortClosed):
			return 0, io.EOF
		default:
			return 0, &IOError{Op: "read", Err: err}
		}
	}
}

// Close disarms the deadline and releases the port. It is safe to call more
// than once and on a nil Endpoint.
func (e *Endpoint) Close() error {
	if e == nil {
		return nil
	}

	e.deadline.Disarm()
	e.release()

	return e.closeErr
}

// watch interrupts the endpoint when ctx is done.
func (e *Endpoint) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, e.interrupt)
}

func (e *Endpoint) interrupt() {
	if i, ok := e.port.(Interrupter); ok {
		i.Interrupt()
	}
}

func (e *Endpoint) release() {
	e.once.Do(func() {
		e.closeErr = e.port.Close()
	})
}
