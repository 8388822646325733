package common

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger configures the global logger. Level is one of debug,
// info, warn, error; format is console or json. Empty values keep the
// defaults (info, console).
func SetupLogger(level, format string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	handler, err := newHandler(format, &slog.HandlerOptions{Level: parsed})
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func newHandler(format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch format {
	case "json":
		return slog.NewJSONHandler(os.Stderr, opts), nil
	case "console", "":
		return slog.NewTextHandler(os.Stderr, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
	return parsed, nil
}
