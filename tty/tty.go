package tty

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
	"github.com/luhtfiimanal/go-linux-iostream/internal/fdio"
	"github.com/luhtfiimanal/go-linux-iostream/internal/logging"
	"github.com/luhtfiimanal/go-linux-iostream/internal/timer"
)

const component = "tty"

// Port is an iostream.Stream over a serial TTY in raw mode.
type Port struct {
	fd      int
	name    string
	timeout int
	timer   *timer.Timer
	io      *fdio.Engine
	log     *slog.Logger
}

var _ iostream.Stream = (*Port)(nil)

// Open opens a serial device for raw, non-blocking I/O. The line keeps its
// current speed until Configure is called; the timeout starts out infinite.
func Open(log *slog.Logger, device string) (*Port, error) {
	log = logging.Or(log, component)

	if device == "" {
		return nil, iostream.ErrInvalidArgs
	}

	log.Info("open", "device", device)

	tm, err := timer.New()
	if err != nil {
		log.Error("failed to create a high resolution timer", "err", err)
		return nil, iostream.FromErrno(err)
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		err = fdio.SysError(log, "open", err)
		tm.Close()
		return nil, err
	}

	p := &Port{
		fd:      fd,
		name:    device,
		timeout: iostream.Infinite,
		timer:   tm,
		io:      fdio.New(tm, log),
		log:     log,
	}

	if err := p.modifyTermios(makeRaw); err != nil {
		unix.Close(fd)
		tm.Close()
		return nil, err
	}

	return p, nil
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

func (p *Port) closed() bool {
	return p.fd == -1
}

// Close closes the device. Closing a closed Port is a no-op.
func (p *Port) Close() error {
	if p.closed() {
		return nil
	}
	var err error
	if cerr := p.io.Sys.Close(p.fd); cerr != nil {
		err = fdio.SysError(p.log, "close", cerr)
	}
	p.fd = -1
	p.timer.Close()
	return err
}

func makeRaw(t *unix.Termios) error {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD

	// Reads return whatever is available; waiting is done with poll.
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return nil
}

func (p *Port) modifyTermios(fn func(*unix.Termios) error) error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	t, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fdio.SysError(p.log, "tcgetattr", err)
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, t); err != nil {
		return fdio.SysError(p.log, "tcsetattr", err)
	}
	return nil
}

// Configure sets the line speed, character size, parity, stop bits and flow
// control.
func (p *Port) Configure(baudrate, databits int, parity iostream.Parity, stopbits iostream.StopBits, flow iostream.FlowControl) error {
	baud, ok := baudToUnix(baudrate)
	if !ok {
		p.log.Error("unsupported baudrate", "baudrate", baudrate)
		return iostream.ErrInvalidArgs
	}

	return p.modifyTermios(func(t *unix.Termios) error {
		t.Cflag &^= unix.CBAUD
		t.Cflag |= baud
		t.Ispeed = baud
		t.Ospeed = baud

		t.Cflag &^= unix.CSIZE
		switch databits {
		case 5:
			t.Cflag |= unix.CS5
		case 6:
			t.Cflag |= unix.CS6
		case 7:
			t.Cflag |= unix.CS7
		case 8:
			t.Cflag |= unix.CS8
		default:
			return iostream.ErrInvalidArgs
		}

		t.Cflag &^= unix.PARENB | unix.PARODD | unix.CMSPAR
		t.Iflag &^= unix.INPCK | unix.IGNPAR
		switch parity {
		case iostream.NoParity:
			t.Iflag |= unix.IGNPAR
		case iostream.OddParity:
			t.Cflag |= unix.PARENB | unix.PARODD
			t.Iflag |= unix.INPCK
		case iostream.EvenParity:
			t.Cflag |= unix.PARENB
			t.Iflag |= unix.INPCK
		case iostream.MarkParity:
			t.Cflag |= unix.PARENB | unix.PARODD | unix.CMSPAR
			t.Iflag |= unix.INPCK
		case iostream.SpaceParity:
			t.Cflag |= unix.PARENB | unix.CMSPAR
			t.Iflag |= unix.INPCK
		default:
			return iostream.ErrInvalidArgs
		}

		switch stopbits {
		case iostream.OneStopBit:
			t.Cflag &^= unix.CSTOPB
		case iostream.TwoStopBits:
			t.Cflag |= unix.CSTOPB
		case iostream.OnePointFiveStopBits:
			return iostream.ErrUnsupported
		default:
			return iostream.ErrInvalidArgs
		}

		t.Cflag &^= unix.CRTSCTS
		t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
		switch flow {
		case iostream.FlowNone:
		case iostream.FlowHardware:
			t.Cflag |= unix.CRTSCTS
		case iostream.FlowSoftware:
			t.Iflag |= unix.IXON | unix.IXOFF
		default:
			return iostream.ErrInvalidArgs
		}
		return nil
	})
}

// Timeout returns the configured read timeout in milliseconds.
func (p *Port) Timeout() int {
	return p.timeout
}

// SetTimeout sets the read timeout: negative blocks, zero polls, positive is
// milliseconds.
func (p *Port) SetTimeout(ms int) error {
	p.timeout = ms
	return nil
}

// SetBreak asserts or clears a break condition on the line.
func (p *Port) SetBreak(on bool) error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	req := uint(unix.TIOCCBRK)
	if on {
		req = unix.TIOCSBRK
	}
	if err := unix.IoctlSetInt(p.fd, req, 0); err != nil {
		return fdio.SysError(p.log, "ioctl", err)
	}
	return nil
}

func (p *Port) setModemLine(line int, on bool) error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	req := uint(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}
	if err := unix.IoctlSetPointerInt(p.fd, req, line); err != nil {
		return fdio.SysError(p.log, "ioctl", err)
	}
	return nil
}

// SetDTR sets the data terminal ready line.
func (p *Port) SetDTR(on bool) error {
	return p.setModemLine(unix.TIOCM_DTR, on)
}

// SetRTS sets the request to send line.
func (p *Port) SetRTS(on bool) error {
	return p.setModemLine(unix.TIOCM_RTS, on)
}

// Lines reads the modem status lines.
func (p *Port) Lines() (iostream.ModemStatusBits, error) {
	if p.closed() {
		return iostream.ModemStatusBits{}, iostream.ErrInvalidArgs
	}
	status, err := unix.IoctlGetInt(p.fd, unix.TIOCMGET)
	if err != nil {
		return iostream.ModemStatusBits{}, fdio.SysError(p.log, "ioctl", err)
	}
	return iostream.ModemStatusBits{
		CTS: status&unix.TIOCM_CTS != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
		DCD: status&unix.TIOCM_CD != 0,
	}, nil
}

// Ioctl is not supported.
func (p *Port) Ioctl(request uint, data []byte) error {
	return iostream.ErrUnsupported
}

// Flush waits until all written data has been transmitted.
func (p *Port) Flush() error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	for {
		// TCSBRK with a non-zero argument is tcdrain.
		err := unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EINTR) {
			return fdio.SysError(p.log, "tcdrain", err)
		}
	}
}

// Purge discards data received but not read, written but not transmitted, or
// both.
func (p *Port) Purge(dir iostream.Direction) error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	var queue int
	switch {
	case dir.Has(iostream.DirectionAll):
		queue = unix.TCIOFLUSH
	case dir.Has(iostream.DirectionInput):
		queue = unix.TCIFLUSH
	case dir.Has(iostream.DirectionOutput):
		queue = unix.TCOFLUSH
	default:
		return iostream.ErrInvalidArgs
	}
	if err := unix.IoctlSetInt(p.fd, unix.TCFLSH, queue); err != nil {
		return fdio.SysError(p.log, "tcflush", err)
	}
	return nil
}

// Sleep suspends the caller for ms milliseconds.
func (p *Port) Sleep(ms int) error {
	return p.io.Sleep(ms)
}

// Available returns the number of bytes in the receive queue.
func (p *Port) Available() (int, error) {
	if p.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return p.io.Available(p.fd)
}

// Poll waits up to timeout milliseconds for input.
func (p *Port) Poll(timeout int) error {
	if p.closed() {
		return iostream.ErrInvalidArgs
	}
	return p.io.Poll(p.fd, timeout)
}

// Read reads at least one byte, waiting no longer than the configured timeout.
func (p *Port) Read(b []byte) (int, error) {
	if p.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return p.io.Read(p.fd, p.timeout, b)
}

// Write writes all of b.
func (p *Port) Write(b []byte) (int, error) {
	if p.closed() {
		return 0, iostream.ErrInvalidArgs
	}
	return p.io.Write(p.fd, b)
}

func baudToUnix(baud int) (uint32, bool) {
	switch baud {
	case 50:
		return unix.B50, true
	case 75:
		return unix.B75, true
	case 110:
		return unix.B110, true
	case 134:
		return unix.B134, true
	case 150:
		return unix.B150, true
	case 200:
		return unix.B200, true
	case 300:
		return unix.B300, true
	case 600:
		return unix.B600, true
	case 1200:
		return unix.B1200, true
	case 1800:
		return unix.B1800, true
	case 2400:
		return unix.B2400, true
	case 4800:
		return unix.B4800, true
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	case 460800:
		return unix.B460800, true
	case 500000:
		return unix.B500000, true
	case 576000:
		return unix.B576000, true
	case 921600:
		return unix.B921600, true
	case 1000000:
		return unix.B1000000, true
	case 1152000:
		return unix.B1152000, true
	case 1500000:
		return unix.B1500000, true
	case 2000000:
		return unix.B2000000, true
	case 2500000:
		return unix.B2500000, true
	case 3000000:
		return unix.B3000000, true
	case 3500000:
		return unix.B3500000, true
	case 4000000:
		return unix.B4000000, true
	default:
		return 0, false
	}
}
