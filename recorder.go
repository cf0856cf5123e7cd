package hdmiswitch

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction tells whether bytes went to or came from the switch.
type Direction uint8

const (
	Rx Direction = iota
	Tx
)

func (d Direction) String() string {
	if d == Tx {
		return ">"
	}
	return "<"
}

// Message is one chunk of bytes seen on the line.
type Message struct {
	Dir       Direction
	Data      []byte
	Timestamp time.Time
}

// Tap receives every chunk written to or read from the switch.
type Tap interface {
	Receive(msg Message) error
}

// Recorder writes Messages to Dest as a gob stream readable by ReadIn.
type Recorder struct {
	Dest io.Writer

	enc  *gob.Encoder
	once sync.Once
}

func (r *Recorder) Receive(msg Message) error {
	r.init()
	return r.enc.Encode(msg)
}

func (r *Recorder) init() {
	r.once.Do(func() {
		r.enc = gob.NewEncoder(r.Dest)
	})
}

// ReadIn decodes a recording into out, closing it when r is exhausted.
func ReadIn(out chan<- Message, r io.Reader) error {
	defer close(out)

	dec := gob.NewDecoder(r)

	for {
		var msg Message
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("while decoding: %w", err)
		}

		out <- msg
	}
}
