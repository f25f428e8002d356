package sockjs

import (
	"os"

	"github.com/rs/zerolog"
)

// log is the package-wide structured logger, wrapping zerolog the way the
// teacher's internal/logger package does: a global logger plus small
// per-component constructors that attach a "component" field.
var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().
	Str("service", "sockjs").
	Logger()

// SetLogger replaces the package-wide logger. Call this once during
// process startup to route sockjs's logs through the embedder's own
// zerolog configuration (e.g. JSON output in production).
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("service", "sockjs").Logger()
}

func managerLog() zerolog.Logger    { return log.With().Str("component", "manager").Logger() }
func dispatcherLog() zerolog.Logger { return log.With().Str("component", "dispatcher").Logger() }
func transportLog(name string) zerolog.Logger {
	return log.With().Str("component", "transport").Str("transport", name).Logger()
}
