package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laelblog/blogctl/cmd"
	"github.com/laelblog/blogctl/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// interruptGrace is how long a cancelled command may take to unwind before
// the process is stopped anyway.
const interruptGrace = 3 * time.Second

// exitInterrupted is the conventional status for a process ended by SIGINT.
const exitInterrupted = 130

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(logLevel(os.Getenv(config.EnvDebug)))
	os.Exit(run())
}

// run executes the CLI with a context that is cancelled on SIGINT or SIGTERM,
// so in-flight requests stop and the credentials database is closed cleanly.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go forceExit(ctx, done, interruptGrace, os.Exit)

	return cmd.Execute(ctx)
}

// logLevel maps the debug variable to a level. Anything but "", "0" and
// "false" turns debug logging on; otherwise the CLI stays quiet.
func logLevel(debug string) zerolog.Level {
	switch debug {
	case "", "0", "false":
		return zerolog.Disabled
	default:
		return zerolog.DebugLevel
	}
}

// forceExit ends the process when a command has not returned within grace
// after ctx was cancelled. A prompt blocked on the terminal never sees the
// cancellation.
func forceExit(ctx context.Context, done <-chan struct{}, grace time.Duration, exit func(int)) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	log.Warn().Dur("grace", grace).Msg("Interrupted, stopping")
	select {
	case <-done:
	case <-time.After(grace):
		exit(exitInterrupted)
	}
}
