// Command dcfifo manages FIFO pairs used to connect a dive computer protocol
// layer to a simulated device.
//
//	dcfifo [-config file] [-log-level level] [-timeout ms] create [-dir D]
//	dcfifo [-config file] [-log-level level] [-timeout ms] remove <read> <write>
//	dcfifo [-config file] [-log-level level] [-timeout ms] echo <read> <write>
//
// create prints the paths of a new pair. echo opens the device end of a pair
// the host opens with (read, write) and sends every byte back until
// interrupted or until the host closes its end. A positive -timeout bounds how
// long echo waits for the host to open its end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	iostream "github.com/luhtfiimanal/go-linux-iostream"
	"github.com/luhtfiimanal/go-linux-iostream/fifo"
	"github.com/luhtfiimanal/go-linux-iostream/internal/config"
	"github.com/luhtfiimanal/go-linux-iostream/internal/logging"
)

// echoPollInterval bounds each wait in echo so that signals are noticed.
const echoPollInterval = 200

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("dcfifo: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dcfifo", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	logLevel := fs.String("log-level", "", "log level (overrides config)")
	timeoutMS := fs.Int("timeout", iostream.Infinite, "timeout in ms, -1 for none (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			cfg.FIFO.TimeoutMS = *timeoutMS
		}
	})

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("missing command: create, remove or echo")
	}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "create":
		sub := flag.NewFlagSet("create", flag.ContinueOnError)
		dir := sub.String("dir", "", "directory for the FIFOs (overrides config)")
		if err := sub.Parse(cmdArgs); err != nil {
			return err
		}
		if *dir != "" {
			cfg.FIFO.Directory = *dir
		}
		if err := setup(cfg); err != nil {
			return err
		}
		return create(cfg, stdout)

	case "remove":
		if len(cmdArgs) != 2 {
			return errors.New("usage: remove <read> <write>")
		}
		if err := setup(cfg); err != nil {
			return err
		}
		return fifo.Remove(nil, cmdArgs[0], cmdArgs[1])

	case "echo":
		if len(cmdArgs) != 2 {
			return errors.New("usage: echo <read> <write>")
		}
		if err := setup(cfg); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return echo(ctx, cfg, cmdArgs[0], cmdArgs[1])

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setup(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	return nil
}

func create(cfg *config.Config, stdout io.Writer) error {
	rpath, wpath, err := fifo.Create(nil, cfg.FIFO.Directory)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Fprintf(stdout, "read=%s\nwrite=%s\n", rpath, wpath)
	return nil
}

func echo(ctx context.Context, cfg *config.Config, readPath, writePath string) error {
	logger := logging.For("echo")

	openCtx := ctx
	if cfg.FIFO.TimeoutMS > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, msDuration(cfg.FIFO.TimeoutMS))
		defer cancel()
	}

	peer, err := fifo.OpenPeer(openCtx, nil, readPath, writePath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer peer.Close()

	// Poll does the waiting; Read only collects what is already there.
	if err := peer.SetTimeout(0); err != nil {
		return err
	}

	buf := make([]byte, 4096)
	var total int
	for ctx.Err() == nil {
		err := peer.Poll(echoPollInterval)
		if errors.Is(err, iostream.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}

		n, err := peer.Read(buf)
		if errors.Is(err, iostream.ErrTimeout) {
			// Readable but empty: the host closed its end.
			logger.Info("host closed", "echoed", total)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if _, err := peer.Write(buf[:n]); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		total += n
		logger.Debug("echo", "bytes", n)
	}
	logger.Info("interrupted", "echoed", total)
	return nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
