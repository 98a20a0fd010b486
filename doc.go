// Package iostream defines the byte stream contract shared by the Linux
// transports in this module, along with the error taxonomy they report.
//
// A device protocol layer holds an iostream.Stream and issues configure, poll,
// read, write, purge and flush calls against it without knowing whether the
// bytes travel over a serial port or a pair of named pipes.
//
// Implementations:
//   - fifo: two named pipes, one per direction, created with fifo.Create
//   - tty: a serial TTY in raw mode
//
// Every operation either returns immediately or blocks the calling goroutine
// for at most the configured timeout. There are no background goroutines and
// no cancellation primitive other than the timeout.
//
// Errors are one of ErrInvalidArgs, ErrNoMemory, ErrNoDevice, ErrNoAccess,
// ErrTimeout, ErrIO or ErrUnsupported. The OS error that caused them is
// logged, not returned.
//
// This package does **not** support Windows.
//
// Example usage:
//
//	rpath, wpath, err := fifo.Create(nil, os.TempDir())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fifo.Remove(nil, rpath, wpath)
//
//	// ... the device side opens its end, then:
//	stream, err := fifo.Open(nil, rpath, wpath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	stream.SetTimeout(1000)
//	buf := make([]byte, 64)
//	n, err := stream.Read(buf)
//	if errors.Is(err, iostream.ErrTimeout) {
//	    log.Println("no answer")
//	}
package iostream
