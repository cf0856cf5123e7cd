package hdmiswitch

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sniffer passively reads whatever the switch sends, such as the status
// frames it emits after a front panel or IR remote change.
type Sniffer struct {
	Port      Port
	OnReceive func([]byte)
}

// Consume reads until ctx is done, the line drops or a read fails.
func (s *Sniffer) Consume(ctx context.Context) error {
	if i, ok := s.Port.(Interrupter); ok {
		stop := context.AfterFunc(ctx, i.Interrupt)
		defer stop()
	}

	bs := make([]byte, 2*ReplyLen)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := s.Port.Read(bs)
		if n > 0 {
			s.OnReceive(append([]byte(nil), bs[:n]...))
		}

		switch {
		case err == nil && n > 0, errors.Is(err, ErrPollTimeout):
		case ctx.Err() != nil:
			return nil
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, ErrPortClosed):
			return fmt.Errorf("reading from serial port: %w", io.EOF)
		default:
			return fmt.Errorf("reading from serial port: %w", err)
		}
	}
}
