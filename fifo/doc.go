// Package fifo implements iostream.Stream over two named pipes, one per
// direction, so that a device protocol layer can talk to a simulator or
// another process exactly as it would to a serial port.
//
// A session starts with Create, which makes the pair in a directory, and ends
// with Remove once both ends are closed. The host opens the pair with Open;
// the process playing the device opens it with OpenPeer, which swaps the
// directions:
//
//	host   reads <dir>/dc_fifo_<pid>_<n>_read   writes <dir>/dc_fifo_<pid>_<n>_write
//	device reads <dir>/dc_fifo_<pid>_<n>_write  writes <dir>/dc_fifo_<pid>_<n>_read
//
// Reads honour the timeout set with SetTimeout as a single deadline across
// internal retries. Writes block until every byte has been accepted. Line
// settings, break, DTR and RTS are accepted and ignored.
package fifo
