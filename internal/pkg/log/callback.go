package log

import (
	"go.uber.org/zap/zapcore"
)

// NewCallbackCore creates a zap core that forwards each entry to the callback.
// It is used to bridge loggers of third-party libraries into the service logger.
func NewCallbackCore(callback func(entry zapcore.Entry, fields []zapcore.Field)) zapcore.Core {
	return &callbackCore{LevelEnabler: DebugLevel, callback: callback}
}

type callbackCore struct {
	zapcore.LevelEnabler
	callback func(entry zapcore.Entry, fields []zapcore.Field)
	fields   []zapcore.Field
}

func (c *callbackCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(clone.fields[:len(clone.fields):len(clone.fields)], fields...)
	return &clone
}

func (c *callbackCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *callbackCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.callback(entry, append(c.fields, fields...))
	return nil
}

func (c *callbackCore) Sync() error {
	return nil
}
