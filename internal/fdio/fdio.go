// Package fdio implements readiness polling and deadline-bounded reads and
// writes on non-blocking file descriptors.
//
// Interrupted system calls and would-block results are retried internally and
// never reach the caller. Any other OS error is logged with its errno and
// mapped to the iostream error taxonomy.
package fdio

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
	"github.com/luhtfiimanal/go-linux-iostream/internal/timer"
)

// Sys holds the system calls used by an Engine. Tests replace individual
// entries to simulate interrupts, short writes and failures.
type Sys struct {
	Ppoll func(fds []unix.PollFd, timeout *unix.Timespec, sigmask *unix.Sigset_t) (int, error)
	Read  func(fd int, p []byte) (int, error)
	Write func(fd int, p []byte) (int, error)
	Ioctl func(fd int, req uint) (int, error)
	Close func(fd int) error
}

// DefaultSys returns the real system calls.
func DefaultSys() Sys {
	return Sys{
		Ppoll: unix.Ppoll,
		Read:  unix.Read,
		Write: unix.Write,
		Ioctl: unix.IoctlGetInt,
		Close: unix.Close,
	}
}

// Clock supplies monotonic timestamps for read deadlines.
type Clock interface {
	Now() (timer.Usecs, error)
}

// Engine performs I/O on descriptors owned by a stream.
type Engine struct {
	Sys   Sys
	Clock Clock
	Log   *slog.Logger
}

// New returns an Engine using the real system calls.
func New(clock Clock, log *slog.Logger) *Engine {
	return &Engine{Sys: DefaultSys(), Clock: clock, Log: log}
}

// SysError logs err with its errno and returns the mapped iostream error.
func SysError(log *slog.Logger, op string, err error) error {
	var errno unix.Errno
	if errors.As(err, &errno) {
		log.Error("system error", "op", op, "errno", int(errno), "err", errno.Error())
	} else {
		log.Error("system error", "op", op, "err", err)
	}
	return iostream.FromErrno(err)
}

func (e *Engine) sysError(op string, err error) error {
	return SysError(e.Log, op, err)
}

// retryable reports whether a failed read or write should simply be retried.
func retryable(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

func (e *Engine) wait(fd int, events int16, ts *unix.Timespec) (int, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	return e.Sys.Ppoll(fds, ts, nil)
}

// msTimespec converts a millisecond timeout to a ppoll bound; nil means forever.
func msTimespec(ms int) *unix.Timespec {
	if ms < 0 {
		return nil
	}
	ts := unix.NsecToTimespec(int64(ms) * int64(time.Millisecond))
	return &ts
}

// Poll waits until fd is readable.
func (e *Engine) Poll(fd, timeout int) error {
	var (
		rc  int
		err error
	)
	for {
		rc, err = e.wait(fd, unix.POLLIN, msTimespec(timeout))
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}

	switch {
	case err != nil:
		return e.sysError("poll", err)
	case rc == 0:
		return iostream.ErrTimeout
	default:
		return nil
	}
}

// Read performs a single successful read from fd, waiting for readiness up to
// timeout milliseconds in total. A zero-byte read means the writer has gone
// and is reported as ErrTimeout.
func (e *Engine) Read(fd, timeout int, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	dl := deadline{timeout: timeout}
	for {
		ts, err := dl.next(e.Clock)
		if err != nil {
			return 0, e.sysError("clock", err)
		}

		rc, err := e.wait(fd, unix.POLLIN, ts)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, e.sysError("poll", err)
		}
		if rc == 0 {
			return 0, iostream.ErrTimeout
		}

		n, err := e.Sys.Read(fd, p)
		if err != nil {
			if retryable(err) {
				continue
			}
			return 0, e.sysError("read", err)
		}
		if n == 0 {
			return 0, iostream.ErrTimeout
		}
		return n, nil
	}
}

// Write writes all of p to fd, waiting for writability without a bound before
// each attempt. It stops early without error if the descriptor accepts zero
// bytes; the returned count tells the caller how much was transferred.
func (e *Engine) Write(fd int, p []byte) (int, error) {
	nbytes := 0
	for nbytes < len(p) {
		rc, err := e.wait(fd, unix.POLLOUT, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return nbytes, e.sysError("poll", err)
		}
		if rc == 0 {
			break
		}

		n, err := e.Sys.Write(fd, p[nbytes:])
		if err != nil {
			if retryable(err) {
				continue
			}
			return nbytes, e.sysError("write", err)
		}
		if n == 0 {
			break
		}
		nbytes += n
	}
	return nbytes, nil
}

// Drain reads and discards everything currently buffered on fd. Running out of
// data, or reaching end of file, is success.
func (e *Engine) Drain(fd int) error {
	var buf [256]byte
	for {
		n, err := e.Sys.Read(fd, buf[:])
		switch {
		case err == nil && n > 0:
			continue
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil
		default:
			return e.sysError("read", err)
		}
	}
}

// Available returns the number of bytes queued for reading on fd.
func (e *Engine) Available(fd int) (int, error) {
	n, err := e.Sys.Ioctl(fd, unix.TIOCINQ)
	if err != nil {
		return 0, e.sysError("ioctl", err)
	}
	return n, nil
}

// Sleep suspends the caller for ms milliseconds, resuming the remaining time
// after a signal interrupt.
func (e *Engine) Sleep(ms int) error {
	if ms <= 0 {
		return nil
	}
	ts := unix.NsecToTimespec(int64(ms) * int64(time.Millisecond))
	for {
		var left unix.Timespec
		err := unix.Nanosleep(&ts, &left)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EINTR) {
			return e.sysError("nanosleep", err)
		}
		ts = left
	}
}
