// Package logging configures the global zerolog logger and emits the
// one-shot startup summary.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
//   - OCEANEYE_LOG_LEVEL: debug, info, warn, error (default: info)
//   - OCEANEYE_LOG_FORMAT: console (default) or json
func Init() {
	InitWith(os.Getenv("OCEANEYE_LOG_LEVEL"), os.Getenv("OCEANEYE_LOG_FORMAT"), os.Stderr)
}

// InitWith configures the global logger explicitly. A --debug flag calls it
// with level "debug".
func InitWith(level, format string, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
