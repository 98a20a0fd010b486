package tty

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
)

func openPort(t *testing.T) (*Port, *os.File) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := Open(nil, slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	return port, master
}

func TestPort_RawMode(t *testing.T) {
	port, _ := openPort(t)

	tio, err := unix.IoctlGetTermios(port.fd, unix.TCGETS)
	require.NoError(t, err)
	require.Zero(t, tio.Lflag&(unix.ICANON|unix.ECHO|unix.ISIG))
	require.Zero(t, tio.Oflag&unix.OPOST)
	require.Equal(t, uint32(unix.CS8), tio.Cflag&unix.CSIZE)
}

func TestPort_NameAndTimeout(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := Open(nil, slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	require.Equal(t, slave.Name(), port.Name())
	require.Equal(t, iostream.Infinite, port.Timeout())
	require.NoError(t, port.SetTimeout(250))
	require.Equal(t, 250, port.Timeout())
}

func TestPort_ChatMasterSlave(t *testing.T) {
	port, master := openPort(t)
	require.NoError(t, port.SetTimeout(1000))

	_, err := master.Write([]byte("ping\n"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := port.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping\n", string(buf[:n]))

	n, err = port.Write([]byte("pong\r\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)

	got := make([]byte, 6)
	n, err = master.Read(got)
	require.NoError(t, err)
	require.Equal(t, "pong\r\n", string(got[:n]))
}

func TestPort_ReadTimeout(t *testing.T) {
	port, _ := openPort(t)
	require.NoError(t, port.SetTimeout(80))

	start := time.Now()
	n, err := port.Read(make([]byte, 8))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, iostream.ErrTimeout)
	require.Equal(t, 0, n)
	require.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	require.Less(t, elapsed, 330*time.Millisecond)
}

func TestPort_PollZero(t *testing.T) {
	port, master := openPort(t)

	require.ErrorIs(t, port.Poll(0), iostream.ErrTimeout)

	_, err := master.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, port.Poll(1000))
}

func TestPort_AvailableAndPurge(t *testing.T) {
	port, master := openPort(t)

	_, err := master.Write([]byte("hello world"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := port.Available()
		return err == nil && n == len("hello world")
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, port.Purge(iostream.DirectionInput))

	n, err := port.Available()
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, port.Purge(iostream.DirectionAll))
	require.ErrorIs(t, port.Purge(0), iostream.ErrInvalidArgs)
}

func TestPort_Configure(t *testing.T) {
	port, _ := openPort(t)

	require.NoError(t, port.Configure(9600, 7, iostream.EvenParity, iostream.TwoStopBits, iostream.FlowNone))

	tio, err := unix.IoctlGetTermios(port.fd, unix.TCGETS)
	require.NoError(t, err)
	require.Equal(t, uint32(unix.B9600), tio.Cflag&unix.CBAUD)
	require.Equal(t, uint32(unix.CS7), tio.Cflag&unix.CSIZE)
	require.NotZero(t, tio.Cflag&unix.PARENB)
	require.Zero(t, tio.Cflag&unix.PARODD)
	require.NotZero(t, tio.Cflag&unix.CSTOPB)

	require.NoError(t, port.Configure(115200, 8, iostream.NoParity, iostream.OneStopBit, iostream.FlowSoftware))
	tio, err = unix.IoctlGetTermios(port.fd, unix.TCGETS)
	require.NoError(t, err)
	require.Equal(t, uint32(unix.B115200), tio.Cflag&unix.CBAUD)
	require.Zero(t, tio.Cflag&unix.PARENB)
	require.NotZero(t, tio.Iflag&unix.IXON)
}

func TestPort_ConfigureRejects(t *testing.T) {
	port, _ := openPort(t)

	require.ErrorIs(t, port.Configure(12345, 8, iostream.NoParity, iostream.OneStopBit, iostream.FlowNone), iostream.ErrInvalidArgs)
	require.ErrorIs(t, port.Configure(9600, 9, iostream.NoParity, iostream.OneStopBit, iostream.FlowNone), iostream.ErrInvalidArgs)
	require.ErrorIs(t, port.Configure(9600, 8, iostream.NoParity, iostream.OnePointFiveStopBits, iostream.FlowNone), iostream.ErrUnsupported)
	require.ErrorIs(t, port.Configure(9600, 8, iostream.NoParity, iostream.OneStopBit, iostream.FlowControl(42)), iostream.ErrInvalidArgs)
}

func TestPort_IoctlUnsupported(t *testing.T) {
	port, _ := openPort(t)
	require.ErrorIs(t, port.Ioctl(1, nil), iostream.ErrUnsupported)
}

func TestPort_Flush(t *testing.T) {
	port, master := openPort(t)

	_, err := port.Write([]byte("drain me"))
	require.NoError(t, err)

	// Keep the master side reading so the output queue can empty.
	go func() {
		buf := make([]byte, 64)
		master.Read(buf)
	}()
	require.NoError(t, port.Flush())
}

func TestPort_Killability(t *testing.T) {
	port, _ := openPort(t)

	require.NoError(t, port.Close())
	require.NoError(t, port.Close())

	_, err := port.Read(make([]byte, 1))
	require.ErrorIs(t, err, iostream.ErrInvalidArgs)
	require.ErrorIs(t, port.Poll(0), iostream.ErrInvalidArgs)
}

func TestPort_ErrorPropagation(t *testing.T) {
	port, master := openPort(t)
	require.NoError(t, port.SetTimeout(1000))

	// Simulate device disconnect by closing master.
	require.NoError(t, master.Close())

	_, err := port.Read(make([]byte, 8))
	require.Error(t, err)
	require.NotErrorIs(t, err, iostream.ErrInvalidArgs)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(nil, "")
	require.ErrorIs(t, err, iostream.ErrInvalidArgs)

	_, err = Open(nil, t.TempDir()+"/ttyNONE")
	require.ErrorIs(t, err, iostream.ErrNoDevice)
}
