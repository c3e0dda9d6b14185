// Package config defines configuration of the relay worker.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/keboola/kv-relay/internal/pkg/env"
	"github.com/keboola/kv-relay/internal/pkg/service/common/etcdclient"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

// ENVPrefix is the prefix of all ENV variables, e.g. the "source-url" flag maps to "KV_RELAY_SOURCE_URL".
const ENVPrefix = "KV_RELAY_"

const (
	DefaultSourceURL         = "wss://notify.keboola.local"
	DefaultConcurrency       = 5
	DefaultRequeueCooldown   = 60 * time.Second
	DefaultReconnectCooldown = 60 * time.Second
)

// Config of the relay worker.
type Config struct {
	Debug              bool
	DebugEtcd          bool
	SourceURL          string
	Etcd               etcdclient.Credentials
	EtcdConnectTimeout time.Duration
	Concurrency        int
	RequeueCooldown    time.Duration
	ReconnectCooldown  time.Duration
}

func New() Config {
	return Config{
		Debug:     false,
		DebugEtcd: false,
		SourceURL: DefaultSourceURL,
		Etcd: etcdclient.Credentials{
			Endpoint:  "",
			Namespace: "kv-relay",
			Username:  "",
			Password:  "",
		},
		EtcdConnectTimeout: 30 * time.Second,
		Concurrency:        DefaultConcurrency,
		RequeueCooldown:    DefaultRequeueCooldown,
		ReconnectCooldown:  DefaultReconnectCooldown,
	}
}

// LoadFrom loads the configuration from the command line flags and ENV variables.
// A flag has priority over the ENV variable, the ENV variable has priority over the default.
func LoadFrom(args []string, envs env.Provider) (Config, error) {
	cfg := New()

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SortFlags = true
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug log level.")
	fs.BoolVar(&cfg.DebugEtcd, "debug-etcd", cfg.DebugEtcd, "Log messages from the etcd client in the debug level.")
	fs.StringVar(&cfg.SourceURL, "source-url", cfg.SourceURL, "Base URL of the update notifications source.")
	fs.StringVar(&cfg.Etcd.Endpoint, "etcd-endpoint", cfg.Etcd.Endpoint, "etcd endpoint.")
	fs.StringVar(&cfg.Etcd.Namespace, "etcd-namespace", cfg.Etcd.Namespace, "etcd namespace.")
	fs.StringVar(&cfg.Etcd.Username, "etcd-username", cfg.Etcd.Username, "etcd username.")
	fs.StringVar(&cfg.Etcd.Password, "etcd-password", cfg.Etcd.Password, "etcd password.")
	fs.DurationVar(&cfg.EtcdConnectTimeout, "etcd-connect-timeout", cfg.EtcdConnectTimeout, "etcd connect timeout.")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Maximum number of concurrently executed publish tasks.")
	fs.DurationVar(&cfg.RequeueCooldown, "requeue-cooldown", cfg.RequeueCooldown, "Delay before a colliding task is re-queued.")
	fs.DurationVar(&cfg.ReconnectCooldown, "reconnect-cooldown", cfg.ReconnectCooldown, "Delay before the subscription is re-created.")

	if err := fs.Parse(args[1:]); err != nil {
		return cfg, err
	}

	// Fill in values from ENV variables, flags take precedence.
	var envErrs error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		if value, found := envs.Lookup(flagToEnv(f.Name)); found {
			if err := f.Value.Set(value); err != nil && envErrs == nil {
				envErrs = errors.Errorf(`invalid ENV variable "%s": %w`, flagToEnv(f.Name), err)
			}
		}
	})
	if envErrs != nil {
		return cfg, envErrs
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	c.SourceURL = strings.TrimRight(strings.TrimSpace(c.SourceURL), "/")
	c.Etcd.Normalize()
}

func (c *Config) Validate() error {
	errs := errors.NewMultiError()
	if c.SourceURL == "" {
		errs.Append(errors.New("source url must be set"))
	}
	if err := c.Etcd.Validate(); err != nil {
		errs.Append(err)
	}
	if c.EtcdConnectTimeout <= 0 {
		errs.Append(errors.Errorf(`etcd connect timeout must be a positive time.Duration, found "%v"`, c.EtcdConnectTimeout))
	}
	if c.Concurrency <= 0 {
		errs.Append(errors.Errorf(`concurrency must be a positive number, found "%d"`, c.Concurrency))
	}
	if c.RequeueCooldown <= 0 {
		errs.Append(errors.Errorf(`requeue cooldown must be a positive time.Duration, found "%v"`, c.RequeueCooldown))
	}
	if c.ReconnectCooldown <= 0 {
		errs.Append(errors.Errorf(`reconnect cooldown must be a positive time.Duration, found "%v"`, c.ReconnectCooldown))
	}
	return errs.ErrorOrNil()
}

func flagToEnv(flagName string) string {
	return ENVPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
