package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger. level overrides the environment default
// (debug in development, info elsewhere); an unknown level is ignored.
func NewLogger(appEnv, level string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, level)
}

func newLogger(w io.Writer, appEnv, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if appEnv == "development" {
		lvl = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = parsed
	}

	if appEnv == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "uigen").
		Logger()
}

// Logger aliases zerolog.Logger so packages outside infra can take a logger
// without importing the third-party module directly.
type Logger = zerolog.Logger
