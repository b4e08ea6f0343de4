package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"curriculum-scraper/cmd/cooldown-cli/commands"
	"curriculum-scraper/lib/osutil"
	"curriculum-scraper/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "cooldown-cli")
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	telemetry.InstrumentPerfStats(ctx, 15*time.Second)

	err = commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := tel.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to shutdown telemetry", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
