package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger implements the Logger interface on top of a zap.SugaredLogger.
type zapLogger struct {
	sugar  *zap.SugaredLogger
	prefix string
}

func loggerFromZap(logger *zap.Logger) *zapLogger {
	return &zapLogger{sugar: logger.Sugar()}
}

func (l *zapLogger) AddPrefix(prefix string) Logger {
	return &zapLogger{sugar: l.sugar, prefix: l.prefix + prefix}
}

func (l *zapLogger) Debug(args ...any) {
	l.sugar.Debug(l.prefix + fmt.Sprint(args...))
}

func (l *zapLogger) Info(args ...any) {
	l.sugar.Info(l.prefix + fmt.Sprint(args...))
}

func (l *zapLogger) Warn(args ...any) {
	l.sugar.Warn(l.prefix + fmt.Sprint(args...))
}

func (l *zapLogger) Error(args ...any) {
	l.sugar.Error(l.prefix + fmt.Sprint(args...))
}

func (l *zapLogger) Debugf(template string, args ...any) {
	l.sugar.Debug(l.prefix + fmt.Sprintf(template, args...))
}

func (l *zapLogger) Infof(template string, args ...any) {
	l.sugar.Info(l.prefix + fmt.Sprintf(template, args...))
}

func (l *zapLogger) Warnf(template string, args ...any) {
	l.sugar.Warn(l.prefix + fmt.Sprintf(template, args...))
}

func (l *zapLogger) Errorf(template string, args ...any) {
	l.sugar.Error(l.prefix + fmt.Sprintf(template, args...))
}

func (l *zapLogger) Log(level string, message string) {
	switch level {
	case "debug":
		l.Debug(message)
	case "info":
		l.Info(message)
	case "warn":
		l.Warn(message)
	case "error":
		l.Error(message)
	default:
		l.Info(message)
	}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}

// stdLevelEncoder formats the level as an uppercase string, without colors.
func stdLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(level.CapitalString())
}
