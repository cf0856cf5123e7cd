package hdmiswitch

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	goburrow "github.com/goburrow/serial"
	bugst "go.bug.st/serial"
)

var (
	// ErrPollTimeout is returned by polling ports when a read slice elapsed
	// without data. It is not an error condition for callers of Endpoint.
	ErrPollTimeout = errors.New("poll timeout")

	// ErrPortClosed is returned by a port whose handle was closed while a
	// call was in progress, either by an interrupt or by the line dropping.
	ErrPortClosed = errors.New("port closed")
)

// Port is a raw byte channel to the switch, already configured for the line.
type Port interface {
	io.ReadWriteCloser
}

// Interrupter is implemented by ports whose blocking calls can be aborted
// from another goroutine.
type Interrupter interface {
	Interrupt()
}

// Driver opens a device path as a Port set up for 9600 8N1 raw mode.
type Driver interface {
	Open(path string) (Port, error)
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(path string) (Port, error)

func (f DriverFunc) Open(path string) (Port, error) {
	return f(path)
}

// DefaultDriver is the driver used by the command line tool.
const DefaultDriver = "bugst"

var drivers = map[string]Driver{
	"bugst":    BugstDriver{},
	"goburrow": GoburrowDriver{PollInterval: 10 * time.Millisecond},
}

// DriverByName looks up one of the built-in drivers.
func DriverByName(name string) (Driver, error) {
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (have %v)", name, DriverNames())
	}

	return d, nil
}

// DriverNames lists the built-in drivers.
func DriverNames() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// BugstDriver opens ports with go.bug.st/serial. Reads block without a
// timeout and are aborted by closing the port.
type BugstDriver struct{}

func (BugstDriver) Open(path string) (Port, error) {
	p, err := bugst.Open(path, &bugst.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	return &bugstPort{port: p}, nil
}

type bugstPort struct {
	port bugst.Port
}

func (p *bugstPort) Read(bs []byte) (int, error) {
	n, err := p.port.Read(bs)
	return n, translateBugst(err)
}

func (p *bugstPort) Write(bs []byte) (int, error) {
	n, err := p.port.Write(bs)
	return n, translateBugst(err)
}

func (p *bugstPort) Close() error {
	return p.port.Close()
}

// Interrupt closes the port; go.bug.st/serial wakes pending reads on close.
func (p *bugstPort) Interrupt() {
	_ = p.port.Close()
}

func translateBugst(err error) error {
	var perr *bugst.PortError
	if errors.As(err, &perr) && perr.Code() == bugst.PortClosed {
		return fmt.Errorf("%w: %s", ErrPortClosed, perr)
	}

	return err
}

// GoburrowDriver opens ports with github.com/goburrow/serial. Reads return
// after PollInterval without data so the endpoint can check its deadline.
type GoburrowDriver struct {
	PollInterval time.Duration
}

func (d GoburrowDriver) Open(path string) (Port, error) {
	p, err := goburrow.Open(&goburrow.Config{
		Address:  path,
		BaudRate: BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  d.PollInterval,
	})
	if err != nil {
		return nil, err
	}

	return &goburrowPort{port: p}, nil
}

type goburrowPort struct {
	port goburrow.Port
}

func (p *goburrowPort) Read(bs []byte) (int, error) {
	n, err := p.port.Read(bs)
	if errors.Is(err, goburrow.ErrTimeout) {
		return n, ErrPollTimeout
	}

	return n, err
}

func (p *goburrowPort) Write(bs []byte) (int, error) {
	return p.port.Write(bs)
}

func (p *goburrowPort) Close() error {
	return p.port.Close()
}
