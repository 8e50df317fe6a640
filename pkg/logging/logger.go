// Package logging provides the zerolog loggers used by zonewatch. Output is
// human-readable on a terminal and JSON everywhere else.
//
// Cycle code carries its fields through the context:
//
//	ctx := logging.WithGeneration(logging.WithZone(ctx, "zone-a"), 6)
//	logging.FromContext(ctx).Debug().Msg("Axis settled")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = newDefaultLogger()

// newDefaultLogger honours LOG_LEVEL and LOG_FORMAT=json before any
// configuration is applied.
func newDefaultLogger() zerolog.Logger {
	var w io.Writer = os.Stderr
	if isTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}

	level := parseLevel(os.Getenv("LOG_LEVEL"))
	zerolog.SetGlobalLevel(level)
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, zerolog's global included.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Warn starts a warning on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

func isTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
