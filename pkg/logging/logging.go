// Package logging configures zerolog the way cmd/ollamacron does in the
// teacher repo: a global level, an optional console writer for
// interactive use, and a component-scoped child logger per caller.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the root logger.
type Options struct {
	Level   string // "debug", "info", "warn", "error"; default "info"
	Console bool   // human-readable console output instead of JSON
	Debug   bool   // forces debug level regardless of Level
}

// Configure sets the global zerolog level and output writer, returning a
// logger scoped to component. Call once at process startup; subsequent
// For(component) calls reuse the configured global state.
func Configure(opts Options, component string) (zerolog.Logger, error) {
	levelStr := opts.Level
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.Logger{}, err
	}
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if opts.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return For(component), nil
}

// For returns a child logger tagged with component, inheriting whatever
// global level/writer Configure last set.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
