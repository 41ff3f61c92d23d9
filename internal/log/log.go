// Package log provides the logrus-backed logger shared by the library packages and the command line tool.
package log

import (
	"io"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/brunoga/scim/internal/errors"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var current atomic.Pointer[logrus.Logger]

func init() {
	current.Store(New(io.Discard))
}

// New returns a logger writing text records to out at the warn level.
func New(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return logger
}

// Logger returns the package logger. Until SetLogger is called it discards everything.
func Logger() *logrus.Logger {
	return current.Load()
}

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	if logger == nil {
		logger = New(io.Discard)
	}

	current.Store(logger)
}

// SetLevel parses and sets the level of the given logger.
func SetLevel(logger *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return errors.New(err)
	}

	logger.SetLevel(lvl)

	return nil
}

// SetFormat switches the given logger between the text and json formatters.
func SetFormat(logger *logrus.Logger, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	default:
		return errors.Errorf("unknown log format %q, expected %q or %q", format, FormatText, FormatJSON)
	}

	return nil
}

// WithFields returns an entry of the package logger carrying the given fields.
func WithFields(fields Fields) *logrus.Entry {
	return Logger().WithFields(fields)
}

// Debugf logs a message at level Debug on the package logger.
func Debugf(format string, args ...any) {
	Logger().Debugf(format, args...)
}

// Infof logs a message at level Info on the package logger.
func Infof(format string, args ...any) {
	Logger().Infof(format, args...)
}
