// Package timer provides a monotonic microsecond clock.
package timer

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by Now after Close.
var ErrClosed = errors.New("timer closed")

// Usecs is a timestamp in microseconds.
type Usecs uint64

// Timer reads CLOCK_MONOTONIC relative to its creation time.
type Timer struct {
	base   unix.Timespec
	closed bool
}

// New creates a timer.
func New() (*Timer, error) {
	t := &Timer{}
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &t.base); err != nil {
		return nil, err
	}
	return t, nil
}

// Now returns the microseconds elapsed since the timer was created.
func (t *Timer) Now() (Usecs, error) {
	if t.closed {
		return 0, ErrClosed
	}
	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
		return 0, err
	}
	return Usecs((now.Nano() - t.base.Nano()) / 1000), nil
}

// Close releases the timer. It is safe to call more than once.
func (t *Timer) Close() error {
	t.closed = true
	return nil
}
