package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kv-relay/internal/pkg/env"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Parallel()

	envs := env.FromMap(map[string]string{"KV_RELAY_ETCD_ENDPOINT": "etcd:2379"})
	cfg, err := LoadFrom([]string{"relay-worker"}, envs)
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.SourceURL)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.RequeueCooldown)
	assert.Equal(t, 60*time.Second, cfg.ReconnectCooldown)
	assert.Equal(t, "etcd:2379", cfg.Etcd.Endpoint)
	assert.Equal(t, "kv-relay/", cfg.Etcd.Namespace)
}

func TestLoadFromFlagsOverrideEnvs(t *testing.T) {
	t.Parallel()

	envs := env.FromMap(map[string]string{
		"KV_RELAY_ETCD_ENDPOINT":      "etcd:2379",
		"KV_RELAY_SOURCE_URL":         "wss://envs.local",
		"KV_RELAY_CONCURRENCY":        "10",
		"KV_RELAY_RECONNECT_COOLDOWN": "5s",
	})
	args := []string{"relay-worker", "--source-url", "wss://flags.local/"}
	cfg, err := LoadFrom(args, envs)
	require.NoError(t, err)

	// Flag wins over ENV, ENV wins over default, trailing slash is trimmed.
	assert.Equal(t, "wss://flags.local", cfg.SourceURL)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.ReconnectCooldown)
}

func TestLoadFromInvalidEnv(t *testing.T) {
	t.Parallel()

	envs := env.FromMap(map[string]string{
		"KV_RELAY_ETCD_ENDPOINT": "etcd:2379",
		"KV_RELAY_CONCURRENCY":   "not-a-number",
	})
	_, err := LoadFrom([]string{"relay-worker"}, envs)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `invalid ENV variable "KV_RELAY_CONCURRENCY"`)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.SourceURL = ""
	cfg.Concurrency = 0
	cfg.RequeueCooldown = -time.Second
	cfg.Normalize()

	err := cfg.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "source url must be set")
		assert.Contains(t, err.Error(), "etcd endpoint is not set")
		assert.Contains(t, err.Error(), "concurrency must be a positive number")
		assert.Contains(t, err.Error(), "requeue cooldown must be a positive time.Duration")
	}
}
