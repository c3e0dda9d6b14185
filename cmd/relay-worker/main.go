package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/keboola/kv-relay/internal/pkg/env"
	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/common/servicectx"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/config"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/dependencies"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/supervisor"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("fatal error: %s\n", err.Error()) // nolint:forbidigo
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap logger, replaced by the service logger when the config is loaded.
	logger := log.NewServiceLogger(os.Stderr, false)

	// Load configuration from flags and ENVs, an ".env" file is supported.
	osEnvs, err := env.FromOs()
	if err != nil {
		return errors.Errorf("cannot load envs: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	envs := env.LoadDotEnv(logger, osEnvs, wd)
	cfg, err := config.LoadFrom(os.Args, envs)
	if errors.Is(err, pflag.ErrHelp) {
		// Stop on the --help flag
		return nil
	} else if err != nil {
		return err
	}

	logger = log.NewServiceLogger(os.Stderr, cfg.Debug).AddPrefix("[relayWorker]")

	// Create process abstraction.
	proc, err := servicectx.New(ctx, cancel, logger)
	if err != nil {
		return err
	}

	// Create dependencies.
	d := dependencies.NewServiceDeps(proc, cfg, envs, logger)

	// Start the supervisor loop.
	logger.Infof(
		"starting relay worker, source=%s, concurrency=%d, requeueCooldown=%s, reconnectCooldown=%s, debug=%t",
		cfg.SourceURL, cfg.Concurrency, cfg.RequeueCooldown, cfg.ReconnectCooldown, cfg.Debug,
	)
	supervisor.New(d)

	// Wait for the process shutdown.
	proc.WaitForShutdown()
	return nil
}
