package fifo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
	"github.com/luhtfiimanal/go-linux-iostream/internal/fdio"
	"github.com/luhtfiimanal/go-linux-iostream/internal/logging"
	"github.com/luhtfiimanal/go-linux-iostream/internal/timer"
)

// peerRetryInterval is how often OpenPeer retries while the host has not
// opened its read FIFO yet.
const peerRetryInterval = 50 * time.Millisecond

// Stream is an iostream.Stream over a pair of FIFOs: bytes are read from one
// and written to the other. Both descriptors are non-blocking and owned by the
// Stream until Close.
type Stream struct {
	fdRead  int
	fdWrite int
	timeout int
	timer   *timer.Timer
	io      *fdio.Engine
	log     *slog.Logger
}

var _ iostream.Stream = (*Stream)(nil)

func newStream(log *slog.Logger) (*Stream, error) {
	s := &Stream{
		fdRead:  -1,
		fdWrite: -1,
		timeout: iostream.Infinite,
		log:     log,
	}

	tm, err := timer.New()
	if err != nil {
		log.Error("failed to create a high resolution timer", "err", err)
		return nil, iostream.FromErrno(err)
	}
	s.timer = tm
	s.io = fdio.New(tm, log)
	return s, nil
}

// release undoes a partially completed open.
func (s *Stream) release() {
	if s.fdRead != -1 {
		unix.Close(s.fdRead)
		s.fdRead = -1
	}
	s.timer.Close()
}

// Open connects to a FIFO pair created by Create. Bytes are read from
// readPath and written to writePath. The timeout starts out infinite.
//
// Opening writePath fails while no process has it open for reading, so the
// far end must already be waiting on it (see OpenPeer).
func Open(log *slog.Logger, readPath, writePath string) (*Stream, error) {
	log = logging.Or(log, component)

	if readPath == "" || writePath == "" {
		return nil, iostream.ErrInvalidArgs
	}

	log.Info("open", "read", readPath, "write", writePath)

	s, err := newStream(log)
	if err != nil {
		return nil, err
	}

	s.fdRead, err = unix.Open(readPath, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		s.fdRead = -1
		err = fdio.SysError(log, "open", err)
		s.release()
		return nil, err
	}

	s.fdWrite, err = unix.Open(writePath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		s.fdWrite = -1
		err = fdio.SysError(log, "open", err)
		s.release()
		return nil, err
	}

	return s, nil
}

// OpenPeer opens the far end of a pair that a host opens with Open(readPath,
// writePath): the returned Stream reads what the host writes and writes what
// the host reads.
//
// The host's write FIFO is opened first so the host's Open can succeed. The
// host's read FIFO is then retried until the host has it open, ctx is done
// (ErrTimeout) or another error occurs.
func OpenPeer(ctx context.Context, log *slog.Logger, readPath, writePath string) (*Stream, error) {
	log = logging.Or(log, component)

	if readPath == "" || writePath == "" {
		return nil, iostream.ErrInvalidArgs
	}

	log.Info("open peer", "read", writePath, "write", readPath)

	s, err := newStream(log)
	if err != nil {
		return nil, err
	}

	s.fdRead, err = unix.Open(writePath, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		s.fdRead = -1
		err = fdio.SysError(log, "open", err)
		s.release()
		return nil, err
	}

	ticker := time.NewTicker(peerRetryInterval)
	defer ticker.Stop()

	for {
		fd, err := unix.Open(readPath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err == nil {
			s.fdWrite = fd
			return s, nil
		}
		if !errors.Is(err, unix.ENXIO) && !errors.Is(err, unix.EINTR) {
			err = fdio.SysError(log, "open", err)
			s.release()
			return nil, err
		}

		select {
		case <-ctx.Done():
			log.Warn("host did not open its end", "path", readPath, "err", ctx.Err())
			s.release()
			return nil, iostream.ErrTimeout
		case <-ticker.C:
		}
	}
}

// Close closes both FIFOs, write side first. Both are closed even if the first
// close fails; the first error is returned. Closing a closed Stream is a no-op.
func (s *Stream) Close() error {
	var first error

	if s.fdWrite != -1 {
		if err := s.io.Sys.Close(s.fdWrite); err != nil {
			first = fdio.SysError(s.log, "close", err)
		}
		s.fdWrite = -1
	}

	if s.fdRead != -1 {
		if err := s.io.Sys.Close(s.fdRead); err != nil {
			err = fdio.SysError(s.log, "close", err)
			if first == nil {
				first = err
			}
		}
		s.fdRead = -1
	}

	s.timer.Close()

	return first
}

func (s *Stream) closed() bool {
	return s.fdRead == -1 || s.fdWrite == -1
}

// Timeout returns the configured read timeout in milliseconds.
func (s *Stream) Timeout() int {
	return s.timeout
}

// SetTimeout sets the read timeout: negative blocks, zero polls, positive is
// milliseconds.
func (s *Stream) SetTimeout(ms int) error {
	s.timeout = ms
	return nil
}

// Configure accepts any line settings; a FIFO has none.
func (s *Stream) Configure(baudrate, databits int, parity iostream.Parity, stopbits iostream.StopBits, flow iostream.FlowControl) error {
	return nil
}

// SetBreak is a no-op.
func (s *Stream) SetBreak(on bool) error { return nil }

// SetDTR is a no-op.
func (s *Stream) SetDTR(on bool) error { return nil }

// SetRTS is a no-op.
func (s *Stream) SetRTS(on bool) error { return nil }

// Lines reports all modem lines inactive.
func (s *Stream) Lines() (iostream.ModemStatusBits, error) {
	return iostream.ModemStatusBits{}, nil
}

// Ioctl is not supported on FIFOs.
func (s *Stream) Ioctl(request uint, data []byte) error {
	return iostream.ErrUnsupported
}

// Flush returns immediately: written bytes are already visible to the reader.
func (s *Stream) Flush() error { return nil }

// Sleep suspends the caller for ms milliseconds.
func (s *Stream) Sleep(ms int) error {
	return s.io.Sleep(ms)
}

// Available returns the number of bytes waiting in the read FIFO.
func (s *Stream) Available() (int, error) {
	if s.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return s.io.Available(s.fdRead)
}

// Poll waits up to timeout milliseconds for the read FIFO to become readable.
func (s *Stream) Poll(timeout int) error {
	if s.closed() {
		return iostream.ErrInvalidArgs
	}
	return s.io.Poll(s.fdRead, timeout)
}

// Read reads at least one byte, waiting no longer than the configured timeout
// in total. If the writer has closed its end Read returns ErrTimeout.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return s.io.Read(s.fdRead, s.timeout, p)
}

// Write writes p, blocking until the FIFO accepts all of it. The configured
// timeout does not apply to writes.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return s.io.Write(s.fdWrite, p)
}

// Purge discards unread input. Output cannot be recalled once written, so
// purging it succeeds without doing anything.
func (s *Stream) Purge(dir iostream.Direction) error {
	if s.closed() {
		return iostream.ErrInvalidArgs
	}
	if dir.Has(iostream.DirectionInput) {
		return s.io.Drain(s.fdRead)
	}
	return nil
}
