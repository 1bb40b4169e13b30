package main

import (
	"io"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// newLogger writes JSON lines when cfg.JSON is set and a console format
// otherwise. Timestamps are left to the platform when timestamps is false.
func newLogger(cfg LoggingConfig, out io.Writer, timestamps bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	w := out
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat, NoColor: !timestamps}
	}
	ctx := zerolog.New(w).Level(level).With()
	if timestamps {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}
