package hdmiswitch

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the active input reported by the switch, 0-8.
type Status uint8

// MaxStatus is the largest status byte the switch reports.
const MaxStatus = 8

// ErrShortReply is returned by Validate for fewer than ReplyLen bytes.
var ErrShortReply = errors.New("short reply")

// Mark is the per-byte verdict of a reply comparison.
type Mark string

const (
	MarkOK       Mark = "OK"
	MarkMismatch Mark = "XX"
	MarkUnknown  Mark = "??"
)

// MismatchError is returned when a reply does not start with the expected
// prefix. Its message is a three line diagnostic lining up the received
// bytes, a per-byte verdict and the expected bytes.
type MismatchError struct {
	Received []byte
	Expected []byte
}

// Marks compares every received byte against the expected prefix. Bytes
// past the prefix have nothing to compare against.
func (e *MismatchError) Marks() []Mark {
	marks := make([]Mark, len(e.Received))
	for i, b := range e.Received {
		switch {
		case i >= len(e.Expected):
			marks[i] = MarkUnknown
		case b == e.Expected[i]:
			marks[i] = MarkOK
		default:
			marks[i] = MarkMismatch
		}
	}

	return marks
}

func (e *MismatchError) Error() string {
	var sb strings.Builder

	sb.WriteString("Unexpected response: ")
	for _, b := range e.Received {
		fmt.Fprintf(&sb, "%02X ", b)
	}

	sb.WriteString("\n              Check: ")
	for _, m := range e.Marks() {
		sb.WriteString(string(m))
		sb.WriteByte(' ')
	}

	sb.WriteString("\n             Expect: ")
	for _, b := range e.Expected {
		fmt.Fprintf(&sb, "%02X ", b)
	}

	return strings.TrimRight(sb.String(), " ")
}

// StatusRangeError is returned for a well-formed reply carrying a status
// byte the switch cannot have.
type StatusRangeError struct {
	Status byte
}

func (e *StatusRangeError) Error() string {
	return fmt.Sprintf("invalid input in response: %d", e.Status)
}

// Validate checks an accumulated reply and extracts the status byte. Bytes
// after the status byte are ignored.
func Validate(buf []byte) (Status, error) {
	if len(buf) < ReplyLen {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrShortReply, len(buf), ReplyLen)
	}

	for i, b := range replyPrefix {
		if buf[i] != b {
			return 0, &MismatchError{
				Received: append([]byte(nil), buf...),
				Expected: ExpectedPrefix(),
			}
		}
	}

	status := buf[PrefixLen]
	if status > MaxStatus {
		return 0, &StatusRangeError{Status: status}
	}

	return Status(status), nil
}
