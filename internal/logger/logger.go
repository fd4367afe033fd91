package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control the process logger.
type Options struct {
	// Debug lowers the level to debug and adds caller information.
	Debug bool
	// JSON writes structured JSON lines instead of console output.
	JSON bool
}

// Setup builds a logger writing to out.
func Setup(out io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Debug {
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}

// Install makes the logger returned by Setup the global logger used by the
// internal packages.
func Install(out io.Writer, opts Options) zerolog.Logger {
	logger := Setup(out, opts)
	log.Logger = logger
	return logger
}
