package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugLogger(t *testing.T) {
	t.Parallel()

	logger := NewDebugLogger()
	logger.Debug("debug message")
	logger.Infof("info %s", "message")
	logger.Warn("warn message")
	logger.Errorf("error %s", "message")

	assert.Equal(t, "DEBUG  debug message\n", logger.DebugMessages())
	assert.Equal(t, "INFO  info message\n", logger.InfoMessages())
	assert.Equal(t, "WARN  warn message\nERROR  error message\n", logger.WarnAndErrorMessages())
	assert.Equal(t, strings.Join([]string{
		"DEBUG  debug message",
		"INFO  info message",
		"WARN  warn message",
		"ERROR  error message",
		"",
	}, "\n"), logger.AllMessages())

	logger.Truncate()
	assert.Equal(t, "", logger.AllMessages())
}

func TestLoggerPrefixes(t *testing.T) {
	t.Parallel()

	logger := NewDebugLogger()
	child := logger.AddPrefix("[supervisor]").AddPrefix("[dispatch]")
	child.Info("message")
	assert.Equal(t, "INFO  [supervisor][dispatch]message\n", logger.InfoMessages())
}

func TestServiceLoggerLevel(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger := NewServiceLogger(&out, false)
	logger.Debug("hidden")
	logger.Info("visible")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "visible")
}
