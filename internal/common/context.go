package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithInterrupt returns a context cancelled on SIGINT or SIGTERM. Call the
// returned cleanup when done.
func WithInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	signals, stop := NewInterruptChannel()

	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		stop()
		cancel()
	}
}

// NewInterruptChannel delivers SIGINT and SIGTERM until cleanup is called.
func NewInterruptChannel() (<-chan os.Signal, func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	return signals, func() {
		signal.Stop(signals)
	}
}
