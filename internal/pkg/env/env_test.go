package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kv-relay/internal/pkg/log"
)

func TestMapOperations(t *testing.T) {
	t.Parallel()

	m := Empty()
	m.Set("foo", "bar")
	m.Set("X", "1")

	value, found := m.Lookup("FOO")
	assert.True(t, found)
	assert.Equal(t, "bar", value)
	assert.Equal(t, "bar", m.Get("foo"))
	assert.Equal(t, []string{"FOO", "X"}, m.Keys())
	assert.Equal(t, []string{"FOO=bar", "X=1"}, m.ToSlice())

	m.Unset("foo")
	_, found = m.Lookup("FOO")
	assert.False(t, found)
}

func TestMapMerge(t *testing.T) {
	t.Parallel()

	m := FromMap(map[string]string{"A": "original"})
	m.Merge(FromMap(map[string]string{"A": "new", "B": "added"}), false)
	assert.Equal(t, map[string]string{"A": "original", "B": "added"}, m.ToMap())

	m.Merge(FromMap(map[string]string{"A": "new"}), true)
	assert.Equal(t, "new", m.Get("A"))
}

func TestLoadDotEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KV_RELAY_SOURCE_URL=wss://example.com\nFROM_FILE=1\n"), 0o600))

	logger := log.NewDebugLogger()
	osEnvs := FromMap(map[string]string{"KV_RELAY_SOURCE_URL": "wss://os.local"})
	envs := LoadDotEnv(logger, osEnvs, dir)

	// OS env takes precedence, missing keys are added from the file.
	assert.Equal(t, "wss://os.local", envs.Get("KV_RELAY_SOURCE_URL"))
	assert.Equal(t, "1", envs.Get("FROM_FILE"))
	assert.Contains(t, logger.InfoMessages(), "loaded env file")
}
