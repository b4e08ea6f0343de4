package serviceutil

import (
	"log/slog"
	"os"
)

// Fatal logs the error and exits with status 1. Commands use it for setup
// failures (config, database, browser) where nothing can continue.
func Fatal(message string, err error) {
	attrs := []any{}
	if err != nil {
		attrs = append(attrs, "err", err.Error())
	}
	slog.Error(message, attrs...)
	os.Exit(1)
}
