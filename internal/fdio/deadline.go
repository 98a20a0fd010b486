package fdio

import (
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-linux-iostream/internal/timer"
)

// deadline is the state of one bounded read. The target is fixed on the first
// pass; every later pass waits only for what is left of it, so retries never
// extend the total wait beyond the configured timeout.
type deadline struct {
	timeout int // milliseconds, <0 infinite
	target  timer.Usecs
	armed   bool
}

// next returns the wait bound for the coming pass. nil means wait forever.
func (d *deadline) next(clock Clock) (*unix.Timespec, error) {
	if d.timeout < 0 {
		return nil, nil
	}
	if d.timeout == 0 {
		return &unix.Timespec{}, nil
	}

	now, err := clock.Now()
	if err != nil {
		return nil, err
	}

	var remaining timer.Usecs
	if !d.armed {
		remaining = timer.Usecs(d.timeout) * 1000
		d.target = now + remaining
		d.armed = true
	} else if now < d.target {
		remaining = d.target - now
	}

	ts := unix.NsecToTimespec(int64(remaining) * 1000)
	return &ts, nil
}
