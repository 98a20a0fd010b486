package fifo

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sys/unix"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
	"github.com/luhtfiimanal/go-linux-iostream/internal/fdio"
	"github.com/luhtfiimanal/go-linux-iostream/internal/logging"
)

const component = "fifo"

// maxPathLen bounds the length of a generated FIFO path.
const maxPathLen = unix.PathMax

var (
	// counter numbers the pairs created by this process. Values are never
	// reused, even when creation fails.
	counter atomic.Uint32

	getpid = unix.Getpid
)

// Create makes two new FIFOs in dir, readable and writable by the owner only,
// and returns their paths:
//
//	<dir>/dc_fifo_<pid>_<counter>_read
//	<dir>/dc_fifo_<pid>_<counter>_write
//
// The caller owns the files and should delete them with Remove when done. If
// the second FIFO cannot be created the first one is removed.
func Create(log *slog.Logger, dir string) (readPath, writePath string, err error) {
	log = logging.Or(log, component)

	if dir == "" {
		return "", "", iostream.ErrInvalidArgs
	}

	pid := getpid()
	n := counter.Add(1) - 1

	rpath := fmt.Sprintf("%s/dc_fifo_%d_%d_read", dir, pid, n)
	wpath := fmt.Sprintf("%s/dc_fifo_%d_%d_write", dir, pid, n)
	if len(rpath) >= maxPathLen || len(wpath) >= maxPathLen {
		return "", "", iostream.ErrNoMemory
	}

	log.Info("create", "read", rpath, "write", wpath)

	if err := unix.Mkfifo(rpath, 0o600); err != nil {
		return "", "", fdio.SysError(log, "mkfifo", err)
	}

	if err := unix.Mkfifo(wpath, 0o600); err != nil {
		err = fdio.SysError(log, "mkfifo", err)
		unix.Unlink(rpath)
		return "", "", err
	}

	return rpath, wpath, nil
}

// Remove deletes both FIFOs of a pair. Paths that no longer exist are ignored.
// Both removals are attempted and the first error is returned.
func Remove(log *slog.Logger, readPath, writePath string) error {
	log = logging.Or(log, component)

	var first error
	for _, path := range []string{writePath, readPath} {
		if path == "" {
			continue
		}
		err := unix.Unlink(path)
		if err == nil || errors.Is(err, unix.ENOENT) {
			continue
		}
		err = fdio.SysError(log, "unlink", err)
		if first == nil {
			first = err
		}
	}
	return first
}
