// Package supervisor keeps the subscription to the update source alive forever.
//
// The supervisor opens a subscription, feeds each received event into the
// dispatcher and, after any failure or close, waits a fixed cooldown and
// starts over. Every iteration gets a fresh connection-scoped publisher.
package supervisor

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/common/etcdclient"
	"github.com/keboola/kv-relay/internal/pkg/service/common/servicectx"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/config"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/dispatch"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/event"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/publish"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/source"
)

type dependencies interface {
	Logger() log.Logger
	Clock() clock.Clock
	Process() *servicectx.Process
	Config() config.Config
}

// Stream is one open subscription to the update source.
// The Events channel is closed on any failure or close, Err reports the reason.
type Stream interface {
	Events() <-chan event.UpdateEvent
	Err() error
	Close()
}

// Publisher is a connection-scoped publish client.
type Publisher interface {
	dispatch.Publisher
	Close()
}

type (
	SubscribeFn    func(ctx context.Context) (Stream, error)
	NewPublisherFn func(ctx context.Context) (Publisher, error)
)

type Option func(s *Supervisor)

// WithSubscribeFn replaces the subscription factory, for tests.
func WithSubscribeFn(v SubscribeFn) Option {
	return func(s *Supervisor) {
		s.subscribe = v
	}
}

// WithNewPublisherFn replaces the publisher factory, for tests.
func WithNewPublisherFn(v NewPublisherFn) Option {
	return func(s *Supervisor) {
		s.newPublisher = v
	}
}

type Supervisor struct {
	logger       log.Logger
	clock        clock.Clock
	cfg          config.Config
	dispatcher   *dispatch.Dispatcher
	subscribe    SubscribeFn
	newPublisher NewPublisherFn
}

func New(d dependencies, opts ...Option) *Supervisor {
	logger := d.Logger().AddPrefix("[supervisor]")
	cfg := d.Config()
	s := &Supervisor{
		logger: logger,
		clock:  d.Clock(),
		cfg:    cfg,
		dispatcher: dispatch.New(d.Logger(), d.Clock(), dispatch.Config{
			Concurrency:     cfg.Concurrency,
			RequeueCooldown: cfg.RequeueCooldown,
		}),
	}
	s.subscribe = func(ctx context.Context) (Stream, error) {
		return source.Subscribe(ctx, logger, cfg.SourceURL)
	}
	s.newPublisher = func(ctx context.Context) (Publisher, error) {
		client, err := etcdclient.New(
			ctx,
			cfg.Etcd,
			etcdclient.WithLogger(d.Logger()),
			etcdclient.WithConnectTimeout(cfg.EtcdConnectTimeout),
			etcdclient.WithDebugLogs(cfg.DebugEtcd),
		)
		if err != nil {
			return nil, err
		}
		return publish.New(client, d.Logger()), nil
	}
	for _, o := range opts {
		o(s)
	}

	// Run the loop until the process shutdown, then stop the worker pool,
	// tasks with a started publish call finish first.
	d.Process().Add(func(ctx context.Context, errCh chan<- error) {
		s.loop(ctx)
		s.dispatcher.Close()
	})
	return s
}

// Dispatcher returns the wrapped dispatcher, for instrumentation and tests.
func (s *Supervisor) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// loop runs forever, it ends only when the ctx is cancelled.
func (s *Supervisor) loop(ctx context.Context) {
	retry := backoff.NewConstantBackOff(s.cfg.ReconnectCooldown)
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Errorf(`subscription failed: %s`, err)
		} else {
			s.logger.Warn(`subscription closed`)
		}

		s.logStats()
		s.logger.Infof(`reconnect in %s`, s.cfg.ReconnectCooldown)
		if !s.sleep(ctx, retry.NextBackOff()) {
			return
		}
	}
}

// runOnce handles one subscription, from the dial to the error/close.
func (s *Supervisor) runOnce(ctx context.Context) error {
	// Connection-scoped resources are not reused across reconnects
	publisher, err := s.newPublisher(ctx)
	if err != nil {
		return err
	}
	defer publisher.Close()

	stream, err := s.subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	s.logger.Infof(`subscribed to "%s"`, s.cfg.SourceURL+source.WatchAllPath)
	for ev := range stream.Events() {
		s.dispatcher.Dispatch(ctx, ev, publisher)
	}
	return stream.Err()
}

func (s *Supervisor) logStats() {
	stats := s.dispatcher.Stats()
	s.logger.Infof(
		"stats: admitted=%d, coalesced=%d, published=%d, publishErrors=%d, staleDropped=%d, queueLen=%d, pendingKeys=%d, runningKeys=%d",
		stats.Admitted, stats.Coalesced, stats.Published, stats.PublishErrors,
		stats.StaleDropped, stats.QueueLen, stats.PendingKeys, stats.RunningKeys,
	)
}

func (s *Supervisor) sleep(ctx context.Context, delay time.Duration) bool {
	timer := s.clock.Timer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
