package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production output is JSON, anything else
// gets the human-readable console writer.
func New(level string, production bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if !production {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "edufam-backend").
		Logger()
}

// ParseLevel maps a case-insensitive level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a logger that discards everything, for tests and tools.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// GooseAdapter routes migration output through zerolog.
type GooseAdapter struct {
	Log zerolog.Logger
}

func (g GooseAdapter) Printf(format string, v ...interface{}) {
	g.Log.Info().Msgf(strings.TrimSpace(format), v...)
}

func (g GooseAdapter) Fatalf(format string, v ...interface{}) {
	g.Log.Fatal().Msgf(strings.TrimSpace(format), v...)
}
