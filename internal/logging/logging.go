// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options describe how to configure the logger.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Setup builds a logger from opts and installs it as the global log.Logger.
// The level is applied globally so SetLevel can change it later.
func Setup(opts Options) (zerolog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console", "text":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format %q", opts.Format)
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.SetGlobalLevel(lvl)
	return logger, nil
}

// SetLevel changes the level of an already configured logger. It is safe
// to call while other goroutines log.
func SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// ParseLevel accepts zerolog level names, with "" meaning info.
func ParseLevel(level string) (zerolog.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(level))
	if trimmed == "" {
		return zerolog.InfoLevel, nil
	}
	if trimmed == "warning" {
		trimmed = "warn"
	}
	lvl, err := zerolog.ParseLevel(trimmed)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}
