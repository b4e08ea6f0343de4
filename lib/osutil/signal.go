package osutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled on the first Ctrl+C (or
// SIGTERM), a second one exits the process right away.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		slog.Info("shutting down, interrupt again to force", "signal", sig.String())
		cancel()
		<-sigs
		os.Exit(130)
	}()

	return ctx
}
