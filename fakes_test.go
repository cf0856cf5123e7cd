package hdmiswitch

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// fakePort plays back scripted reads. Once the script runs out it either
// reports end of stream or blocks until closed, like a silent switch.
type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	eof     bool
	readErr error

	blockWrite bool
	written    bytes.Buffer

	// onWrite lets a simulated device answer what was written.
	onWrite func(p *fakePort, frame []byte)

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakePort(chunks ...[]byte) *fakePort {
	return &fakePort{chunks: chunks, closed: make(chan struct{})}
}

func (p *fakePort) queue(chunks ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, chunks...)
}

func (p *fakePort) Read(bs []byte) (int, error) {
	p.mu.Lock()
	if len(p.chunks) > 0 {
		chunk := p.chunks[0]
		n := copy(bs, chunk)
		if n < len(chunk) {
			p.chunks[0] = chunk[n:]
		} else {
			p.chunks = p.chunks[1:]
		}
		p.mu.Unlock()
		return n, nil
	}
	eof, readErr := p.eof, p.readErr
	p.mu.Unlock()

	switch {
	case readErr != nil:
		return 0, readErr
	case eof:
		return 0, io.EOF
	}

	<-p.closed
	return 0, ErrPortClosed
}

func (p *fakePort) Write(bs []byte) (int, error) {
	if p.blockWrite {
		<-p.closed
		return 0, ErrPortClosed
	}

	select {
	case <-p.closed:
		return 0, ErrPortClosed
	default:
	}

	p.mu.Lock()
	p.written.Write(bs)
	onWrite := p.onWrite
	p.mu.Unlock()

	if onWrite != nil {
		onWrite(p, append([]byte(nil), bs...))
	}
	return len(bs), nil
}

func (p *fakePort) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) Interrupt() { _ = p.Close() }

func (p *fakePort) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *fakePort) writtenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

// fakeDriver hands out one port per Open from newPort.
type fakeDriver struct {
	mu      sync.Mutex
	newPort func(n int) *fakePort
	openErr error
	ports   []*fakePort
}

func (d *fakeDriver) Open(path string) (Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		d.ports = append(d.ports, nil)
		return nil, d.openErr
	}

	p := d.newPort(len(d.ports))
	d.ports = append(d.ports, p)
	return p, nil
}

func (d *fakeDriver) opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ports)
}

func (d *fakeDriver) port(i int) *fakePort {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ports[i]
}

func scripted(ports ...*fakePort) *fakeDriver {
	return &fakeDriver{newPort: func(n int) *fakePort {
		if n < len(ports) {
			return ports[n]
		}
		return newFakePort()
	}}
}

func reply(status byte) []byte {
	return append(ExpectedPrefix(), status)
}

// fakeSwitch is a simulated device keeping its selected input across opens.
type fakeSwitch struct {
	mu       sync.Mutex
	selected byte
	// split, if set, breaks every reply into chunks of this size.
	split int
}

func (s *fakeSwitch) driver() *fakeDriver {
	return &fakeDriver{newPort: func(int) *fakePort {
		p := newFakePort()
		p.onWrite = s.handle
		return p
	}}
}

func (s *fakeSwitch) handle(p *fakePort, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bytes.Equal(frame, queryFrame) {
		r := reply(s.selected)
		if s.split == 0 {
			p.queue(r)
			return
		}
		for len(r) > 0 {
			n := min(s.split, len(r))
			p.queue(r[:n])
			r = r[n:]
		}
		return
	}

	for i := range commandFrames {
		if bytes.Equal(frame, commandFrames[i][:]) {
			s.selected = byte(i + 1)
			return
		}
	}
}

var errWiring = errors.New("input/output error")
