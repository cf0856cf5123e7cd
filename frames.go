// Package hdmiswitch drives an HRM-2218F 8-input HDMI switch over RS-232.
//
// The switch speaks a fixed binary protocol at 9600 8N1: a 15 byte status
// query is answered by an 18 byte reply whose last byte is the active input,
// and each input has its own 20 byte select command. The checksum-like bytes
// inside the frames are device specific and kept verbatim.
package hdmiswitch

import "fmt"

const (
	// CommandLen is the length of every select-input command.
	CommandLen = 20
	// PrefixLen is the length of the fixed part of a status reply.
	PrefixLen = 17
	// ReplyLen is the minimum number of bytes that make up a status reply.
	ReplyLen = PrefixLen + 1

	// MinInput and MaxInput bound the selectable inputs.
	MinInput = 1
	MaxInput = 8

	// BaudRate is the only line speed the switch supports.
	BaudRate = 9600
)

var queryFrame = []byte{
	0x20, 0x3f, 0x00, 0x00, 0xf1,
	0x20, 0x08, 0x00, 0x00, 0x55,
	0x20, 0x07, 0x00, 0x00, 0x0a,
}

// Bytes 5-12 spell the model, "HRM-2218".
var replyPrefix = [PrefixLen]byte{
	0x80, 0x0B, 0xC0, 0x01, 0x08, 0x48,
	0x52, 0x4D, 0x2D, 0x32, 0x32, 0x31,
	0x38, 0xE9, 0x80, 0x02, 0x01,
}

var commandFrames = [MaxInput][CommandLen]byte{
	{0x20, 0x02, 0x01, 0x01, 0xa5, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x01, 0x41, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x02, 0x47, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x02, 0xa3, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x03, 0x19, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x03, 0xfd, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x04, 0x9a, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x04, 0x7e, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x05, 0xc4, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x05, 0x20, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x06, 0x26, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x06, 0xc2, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x07, 0x78, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x07, 0x9c, 0x20, 0x07, 0x01, 0x00, 0xce},
	{0x20, 0x02, 0x01, 0x08, 0x39, 0x20, 0x08, 0x01, 0x00, 0x91,
		0x20, 0x01, 0x01, 0x08, 0xdd, 0x20, 0x07, 0x01, 0x00, 0xce},
}

// CommandFor returns the frame selecting the given input.
func CommandFor(input int) ([]byte, error) {
	if input < MinInput || input > MaxInput {
		return nil, fmt.Errorf("input %d out of range [%d-%d]", input, MinInput, MaxInput)
	}

	frame := commandFrames[input-1]
	return frame[:], nil
}

// QueryFrame returns the status query.
func QueryFrame() []byte {
	return append([]byte(nil), queryFrame...)
}

// ExpectedPrefix returns the bytes every status reply starts with.
func ExpectedPrefix() []byte {
	prefix := replyPrefix
	return prefix[:]
}
