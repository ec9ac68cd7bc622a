package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls output format and level.
type Config struct {
	Env   string // development: console output; anything else: JSON
	Level string // trace, debug, info, warn, error
}

// New builds the service logger. Callers pass it down explicitly; the
// zerolog global logger is left alone.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	w := out
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: out}
	}

	return zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Component returns a sublogger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Mask shortens secrets such as session ids before they reach a log line.
func Mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// parseLevel falls back to info for empty or unknown levels.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
