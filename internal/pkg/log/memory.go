package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type memoryEntry struct {
	level   zapcore.Level
	message string
}

// memoryRecorder stores all logged messages, so tests can assert them.
type memoryRecorder struct {
	lock    deadlock.Mutex
	entries []memoryEntry
	writer  io.Writer
}

type debugLogger struct {
	*zapLogger
	recorder *memoryRecorder
}

// NewDebugLogger creates a logger that records all messages in memory.
func NewDebugLogger() DebugLogger {
	recorder := &memoryRecorder{}
	core := &memoryCore{LevelEnabler: DebugLevel, recorder: recorder}
	return &debugLogger{
		zapLogger: loggerFromZap(zap.New(core)),
		recorder:  recorder,
	}
}

func (l *debugLogger) ConnectTo(writer io.Writer) {
	l.recorder.lock.Lock()
	defer l.recorder.lock.Unlock()
	l.recorder.writer = writer
}

func (l *debugLogger) Truncate() {
	l.recorder.lock.Lock()
	defer l.recorder.lock.Unlock()
	l.recorder.entries = nil
}

func (l *debugLogger) AllMessages() string {
	return l.messages(func(zapcore.Level) bool { return true })
}

func (l *debugLogger) DebugMessages() string {
	return l.messages(func(v zapcore.Level) bool { return v == DebugLevel })
}

func (l *debugLogger) InfoMessages() string {
	return l.messages(func(v zapcore.Level) bool { return v == InfoLevel })
}

func (l *debugLogger) WarnMessages() string {
	return l.messages(func(v zapcore.Level) bool { return v == WarnLevel })
}

func (l *debugLogger) ErrorMessages() string {
	return l.messages(func(v zapcore.Level) bool { return v == ErrorLevel })
}

func (l *debugLogger) WarnAndErrorMessages() string {
	return l.messages(func(v zapcore.Level) bool { return v >= WarnLevel })
}

func (l *debugLogger) messages(match func(level zapcore.Level) bool) string {
	l.recorder.lock.Lock()
	defer l.recorder.lock.Unlock()
	var out strings.Builder
	for _, entry := range l.recorder.entries {
		if match(entry.level) {
			out.WriteString(fmt.Sprintf("%s  %s\n", entry.level.CapitalString(), entry.message))
		}
	}
	return out.String()
}

// memoryCore is a zap core that appends entries to the recorder.
type memoryCore struct {
	zapcore.LevelEnabler
	recorder *memoryRecorder
}

func (c *memoryCore) With([]zapcore.Field) zapcore.Core {
	return c
}

func (c *memoryCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *memoryCore) Write(entry zapcore.Entry, _ []zapcore.Field) error {
	c.recorder.lock.Lock()
	defer c.recorder.lock.Unlock()
	c.recorder.entries = append(c.recorder.entries, memoryEntry{level: entry.Level, message: entry.Message})
	if c.recorder.writer != nil {
		fmt.Fprintf(c.recorder.writer, "%s  %s\n", entry.Level.CapitalString(), entry.Message)
	}
	return nil
}

func (c *memoryCore) Sync() error {
	return nil
}
