// Package logging provides the structured logger shared across the analyzer,
// the task store, the queue workers and the review tool.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger exposes Printf-compatible sinks per level, mirroring the calling
// convention (logger.Info.Printf(...), logger.Error.Printf(...)) used
// throughout the template-matching code this package replaces.
type Logger struct {
	Info  *logrus.Logger
	Error *logrus.Logger
	Debug *logrus.Logger
}

// NewLogger builds a Logger writing JSON lines to path, or to stderr when
// path is empty. Each level gets its own *logrus.Logger so callers can keep
// writing logger.Info.Printf(...) / logger.Error.Printf(...) without a
// level argument, while still emitting leveled, structured records.
func NewLogger(path string) (*Logger, error) {
	var out io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	build := func(level logrus.Level) *logrus.Logger {
		l := logrus.New()
		l.SetOutput(out)
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(level)
		return l
	}

	return &Logger{
		Info:  build(logrus.InfoLevel),
		Error: build(logrus.ErrorLevel),
		Debug: build(logrus.DebugLevel),
	}, nil
}

// NewNop returns a Logger that discards everything, for use in tests.
func NewNop() *Logger {
	build := func() *logrus.Logger {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return &Logger{Info: build(), Error: build(), Debug: build()}
}
