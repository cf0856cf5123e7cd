package hdmiswitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"go.tigermatt.uk/hdmiswitch/internal/metrics"
)

// ErrMaxRetries is returned once every allowed query attempt timed out or
// saw the line drop.
var ErrMaxRetries = errors.New("max retries reached")

// retryError marks a failed attempt worth repeating from a fresh open.
type retryError struct {
	reason string
	err    error
}

func (e *retryError) Error() string { return e.err.Error() }
func (e *retryError) Unwrap() error { return e.err }

// Exchanger runs the select and query exchanges against one switch.
type Exchanger struct {
	Driver Driver
	Config Config

	// Optional.
	Logger  *zap.Logger
	Tap     Tap
	Metrics *metrics.Exchange
}

// Run selects Config.Input if set, then queries the active input.
func (x *Exchanger) Run(ctx context.Context) (Status, error) {
	status, err := x.run(ctx)
	x.Metrics.Result(resultLabel(err), int(status))
	return status, err
}

func (x *Exchanger) run(ctx context.Context) (Status, error) {
	if err := x.Config.Validate(); err != nil {
		return 0, err
	}

	if x.Config.Input != 0 {
		if err := x.SelectInput(ctx, x.Config.Input); err != nil {
			return 0, err
		}
	}

	return x.Query(ctx)
}

// SelectInput writes the command for input once, then waits twice the
// timeout for the switch to act on it. A failed write is not retried.
func (x *Exchanger) SelectInput(ctx context.Context, input int) error {
	frame, err := CommandFor(input)
	if err != nil {
		return err
	}

	ep, err := Open(x.Driver, x.Config.Device)
	if err != nil {
		return err
	}
	defer ep.Close()
	defer ep.watch(ctx)()

	if err := x.send(ctx, ep, frame); err != nil {
		return fmt.Errorf("selecting input %d: %w", input, err)
	}
	ep.Disarm()

	settle := time.NewTimer(2 * x.Config.Timeout)
	defer settle.Stop()

	select {
	case <-settle.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	return ep.Close()
}

// Query asks the switch for its active input, making at most
// Config.MaxRetries+1 attempts.
func (x *Exchanger) Query(ctx context.Context) (Status, error) {
	log := x.logger()
	retries := x.Config.MaxRetries

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		status, err := x.queryOnce(ctx, attempt)

		var rerr *retryError
		if !errors.As(err, &rerr) {
			return status, err
		}

		x.Metrics.Retry(rerr.reason)
		log.Info(rerr.Error()+", retrying", zap.Int("attempt", attempt), zap.Int("retriesLeft", retries))

		if retries <= 0 {
			return 0, fmt.Errorf("%w after %d attempts: %s", ErrMaxRetries, attempt, rerr)
		}
		retries--
	}
}

func (x *Exchanger) queryOnce(ctx context.Context, attempt int) (Status, error) {
	log := x.logger()

	ep, err := Open(x.Driver, x.Config.Device)
	if err != nil {
		return 0, err
	}
	defer ep.Close()
	defer ep.watch(ctx)()

	x.Metrics.Attempt()
	log.Debug("querying status", zap.Int("attempt", attempt))

	if err := x.send(ctx, ep, queryFrame); err != nil {
		return 0, fmt.Errorf("querying status: %w", err)
	}

	// One window for the whole reply, not one per read.
	ep.Arm(x.Config.Timeout)

	// Room for a reply with trailing bytes, which show up in the mismatch
	// diagnostic.
	buf := make([]byte, 2*PrefixLen)
	total := 0

	for total < ReplyLen {
		n, err := ep.Read(buf[total:])
		if n > 0 {
			x.tap(Rx, buf[total:total+n])
			x.Metrics.Read(n)
			total += n
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}

		switch {
		case errors.Is(err, io.EOF):
			return 0, &retryError{reason: metrics.ReasonEOF, err: errors.New("read() returned EOF")}
		case errors.Is(err, ErrCancelled):
			return 0, &retryError{reason: metrics.ReasonTimeout, err: fmt.Errorf("read() %w with %d bytes", err, total)}
		default:
			return 0, fmt.Errorf("reading from serial port: %w", err)
		}
	}
	ep.Disarm()

	log.Debug("response", zap.Int("size", total), zap.String("bytes", fmt.Sprintf("% X", buf[:total])))

	return Validate(buf[:total])
}

// send writes frame under a fresh deadline.
func (x *Exchanger) send(ctx context.Context, ep *Endpoint, frame []byte) error {
	ep.Arm(x.Config.Timeout)

	n, err := ep.Write(frame)
	if n > 0 {
		x.tap(Tx, frame[:n])
	}
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrCancelled) {
		return fmt.Errorf("write() %w", err)
	}
	if err != nil {
		return fmt.Errorf("writing to serial port: %w", err)
	}

	x.logger().Debug("wrote frame", zap.Int("bytes", n), zap.String("device", ep.Path))
	return nil
}

func (x *Exchanger) tap(dir Direction, data []byte) {
	if x.Tap == nil {
		return
	}

	msg := Message{Dir: dir, Data: append([]byte(nil), data...), Timestamp: time.Now()}
	if err := x.Tap.Receive(msg); err != nil {
		x.logger().Warn("recording frame", zap.Error(err))
	}
}

func (x *Exchanger) logger() *zap.Logger {
	if x.Logger == nil {
		return zap.NewNop()
	}
	return x.Logger
}

func resultLabel(err error) string {
	var (
		cfgErr   *ConfigError
		openErr  *OpenError
		mismatch *MismatchError
		rangeErr *StatusRangeError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &openErr):
		return "open"
	case errors.Is(err, ErrMaxRetries):
		return "exhausted"
	case errors.As(err, &mismatch):
		return "mismatch"
	case errors.As(err, &rangeErr):
		return "range"
	case errors.Is(err, ErrCancelled):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "io"
	}
}
