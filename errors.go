package iostream

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Errors returned by Stream implementations. The set is deliberately small and
// stable; the underlying OS error is reported to the logger instead.
var (
	// ErrInvalidArgs indicates an invalid argument.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrNoMemory indicates an allocation or buffer bound failure.
	ErrNoMemory = errors.New("out of memory")

	// ErrNoDevice indicates the device or path does not exist.
	ErrNoDevice = errors.New("no such device")

	// ErrNoAccess indicates the device is busy or access was denied.
	ErrNoAccess = errors.New("access denied")

	// ErrTimeout indicates the operation did not complete in time, or the far
	// end of the stream went away.
	ErrTimeout = errors.New("timeout")

	// ErrIO indicates any other input/output failure.
	ErrIO = errors.New("input/output error")

	// ErrUnsupported indicates the transport cannot perform the operation.
	ErrUnsupported = errors.New("unsupported operation")
)

// Status is the numeric form of an error, as used by the device protocol layer.
type Status int

// Status codes.
const (
	StatusSuccess     Status = 0
	StatusUnsupported Status = -1
	StatusInvalidArgs Status = -2
	StatusNoMemory    Status = -3
	StatusNoDevice    Status = -4
	StatusNoAccess    Status = -5
	StatusIO          Status = -6
	StatusTimeout     Status = -7
)

var statusNames = map[Status]string{
	StatusSuccess:     "success",
	StatusUnsupported: "unsupported",
	StatusInvalidArgs: "invalid arguments",
	StatusNoMemory:    "out of memory",
	StatusNoDevice:    "no device",
	StatusNoAccess:    "access denied",
	StatusIO:          "input/output error",
	StatusTimeout:     "timeout",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// StatusOf returns the status code for err. Errors outside the taxonomy are
// reported as StatusIO.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrUnsupported):
		return StatusUnsupported
	case errors.Is(err, ErrInvalidArgs):
		return StatusInvalidArgs
	case errors.Is(err, ErrNoMemory):
		return StatusNoMemory
	case errors.Is(err, ErrNoDevice):
		return StatusNoDevice
	case errors.Is(err, ErrNoAccess):
		return StatusNoAccess
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	default:
		return StatusIO
	}
}

// FromErrno maps an OS error to one of the package errors. Errors that do not
// carry an errno map to ErrIO.
func FromErrno(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return ErrIO
	}
	switch errno {
	case unix.EINVAL:
		return ErrInvalidArgs
	case unix.ENOMEM:
		return ErrNoMemory
	case unix.ENOENT:
		return ErrNoDevice
	case unix.EACCES, unix.EBUSY:
		return ErrNoAccess
	default:
		return ErrIO
	}
}
