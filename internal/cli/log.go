package cli

import (
	"fmt"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// newLogger builds the process logger. "text" renders through
// charmbracelet/log for terminals, "json" is one object per line for log
// shippers.
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	switch format {
	case "", "text":
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		})), nil
	case "json":
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	}
	return nil, fmt.Errorf("cli: unknown log format %q", format)
}
