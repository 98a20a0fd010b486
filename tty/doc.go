// Package tty implements iostream.Stream over a Linux serial device.
//
// The device is opened non-blocking and switched to raw mode: no line
// discipline processing, no echo, reads return as soon as any byte arrives.
// Configure applies speed, framing and flow control through termios, and the
// modem lines are driven with the TIOCM ioctls.
//
// Example usage:
//
//	port, err := tty.Open(nil, "/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	err = port.Configure(115200, 8, iostream.NoParity, iostream.OneStopBit, iostream.FlowNone)
//	port.SetTimeout(500)
//
//	port.Write([]byte("C,START\r\n"))
//	buf := make([]byte, 256)
//	n, err := port.Read(buf)
package tty
