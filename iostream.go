package iostream

import (
	"io"

	"go.bug.st/serial"
)

// Infinite is the timeout value that makes Read and Poll block until data arrives.
const Infinite = -1

// Parity and StopBits share their values with go.bug.st/serial so a Stream
// can be configured from the same settings as a bug.st serial port.
type (
	Parity          = serial.Parity
	StopBits        = serial.StopBits
	ModemStatusBits = serial.ModemStatusBits
)

// Parity settings.
const (
	NoParity    = serial.NoParity
	OddParity   = serial.OddParity
	EvenParity  = serial.EvenParity
	MarkParity  = serial.MarkParity
	SpaceParity = serial.SpaceParity
)

// Stop bit settings.
const (
	OneStopBit           = serial.OneStopBit
	OnePointFiveStopBits = serial.OnePointFiveStopBits
	TwoStopBits          = serial.TwoStopBits
)

// FlowControl selects the flow control discipline of a line.
type FlowControl int

// Flow control options.
const (
	FlowNone     FlowControl = iota // No flow control
	FlowHardware                    // RTS/CTS
	FlowSoftware                    // XON/XOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowHardware:
		return "hardware"
	case FlowSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// Direction selects the buffers affected by Purge.
type Direction uint

// Purge directions.
const (
	DirectionInput  Direction = 1 << iota // Receive buffer
	DirectionOutput                       // Transmit buffer
	DirectionAll    = DirectionInput | DirectionOutput
)

// Has reports whether d includes all bits of other.
func (d Direction) Has(other Direction) bool {
	return d&other == other
}

// Stream is the transport contract a device protocol layer talks to. Serial
// ports, FIFO pairs and other byte transports implement it independently so the
// protocol layer never needs to know which one it holds.
//
// Timeouts are in milliseconds: a negative value blocks indefinitely, zero
// returns immediately and a positive value bounds the wait.
//
// A Stream is not safe for concurrent use, except that one Read and one Write
// may proceed at the same time on transports with independent descriptors.
type Stream interface {
	io.ReadWriteCloser

	// Configure applies line settings. Transports without line settings
	// accept any values.
	Configure(baudrate, databits int, parity Parity, stopbits StopBits, flow FlowControl) error

	// SetTimeout sets the timeout used by Read.
	SetTimeout(ms int) error

	SetBreak(on bool) error
	SetDTR(on bool) error
	SetRTS(on bool) error

	// Lines reports the state of the modem status lines.
	Lines() (ModemStatusBits, error)

	// Available returns the number of bytes that can be read without blocking.
	Available() (int, error)

	// Poll waits until data can be read, returning ErrTimeout if none arrives in time.
	Poll(timeout int) error

	// Ioctl issues a transport specific control request.
	Ioctl(request uint, data []byte) error

	// Flush waits until written data has been transmitted.
	Flush() error

	// Purge discards buffered data in the given direction.
	Purge(dir Direction) error

	// Sleep suspends the caller for ms milliseconds.
	Sleep(ms int) error
}
