// Package shutdown ties process lifetime to SIGINT/SIGTERM.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context cancelled on the first interrupt or termination
// signal. A second signal exits immediately.
func New() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}
		<-sigCh
		os.Exit(1)
	}()

	return ctx, cancel
}
