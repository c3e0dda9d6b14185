// Package log provides the logger for the service,
// it is implemented on top of the zap library.
package log

import (
	"io"

	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)

	// Log logs the message with the level defined by a string.
	Log(level string, message string)

	// AddPrefix returns a child logger, all messages are prefixed, prefixes are nested.
	AddPrefix(prefix string) Logger

	Sync() error
}

// DebugLogger returns logged messages as strings, it is used in tests.
type DebugLogger interface {
	Logger

	// ConnectTo mirrors all messages to the writer.
	ConnectTo(writer io.Writer)
	// Truncate clears all recorded messages.
	Truncate()

	AllMessages() string
	DebugMessages() string
	InfoMessages() string
	WarnMessages() string
	ErrorMessages() string
	WarnAndErrorMessages() string
}
