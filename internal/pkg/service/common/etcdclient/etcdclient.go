// Package etcdclient provides a configured etcd client.
package etcdclient

import (
	"context"
	"strings"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	etcdNamespace "go.etcd.io/etcd/client/v3/namespace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultKeepAliveTimeout  = 5 * time.Second
	defaultKeepAliveInterval = 10 * time.Second
)

type config struct {
	credentials       Credentials
	debugLogs         bool
	connectTimeout    time.Duration
	keepAliveTimeout  time.Duration
	keepAliveInterval time.Duration
	logger            log.Logger
}

type Option func(c *config)

// WithDebugLogs forwards also debug messages from the etcd client to the service logger.
func WithDebugLogs(v bool) Option {
	return func(c *config) {
		c.debugLogs = v
	}
}

// WithConnectTimeout defines the maximum time for creating a connection in the New function.
func WithConnectTimeout(v time.Duration) Option {
	return func(c *config) {
		c.connectTimeout = v
	}
}

func WithKeepAliveTimeout(v time.Duration) Option {
	return func(c *config) {
		c.keepAliveTimeout = v
	}
}

func WithKeepAliveInterval(v time.Duration) Option {
	return func(c *config) {
		c.keepAliveInterval = v
	}
}

func WithLogger(v log.Logger) Option {
	return func(c *config) {
		c.logger = v
	}
}

// UseNamespace prefixes all client operations with the namespace.
func UseNamespace(c *etcd.Client, prefix string) {
	c.KV = etcdNamespace.NewKV(c.KV, prefix)
	c.Watcher = etcdNamespace.NewWatcher(c.Watcher, prefix)
	c.Lease = etcdNamespace.NewLease(c.Lease, prefix)
}

// New creates a new etcd client and checks the connection.
// The caller is responsible for closing the client.
func New(ctx context.Context, credentials Credentials, opts ...Option) (*etcd.Client, error) {
	cfg := config{
		credentials:       credentials,
		connectTimeout:    defaultConnectTimeout,
		keepAliveTimeout:  defaultKeepAliveTimeout,
		keepAliveInterval: defaultKeepAliveInterval,
		logger:            log.NewNopLogger(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	cfg.credentials.Normalize()
	if err := cfg.credentials.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger.AddPrefix("[etcd-client]")

	// Bridge the etcd client internal logger to the service logger.
	debugLogs := cfg.debugLogs
	etcdLogger := zap.New(log.NewCallbackCore(func(entry zapcore.Entry, fields []zapcore.Field) {
		if entry.Level == log.DebugLevel && !debugLogs {
			return
		}
		logger.Log(entry.Level.String(), entry.Message)
	}))

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.connectTimeout)
	defer connectCancel()

	startTime := time.Now()
	logger.Infof(
		"connecting to etcd, connectTimeout=%s, keepAliveTimeout=%s, keepAliveInterval=%s",
		cfg.connectTimeout, cfg.keepAliveTimeout, cfg.keepAliveInterval,
	)
	c, err := etcd.New(etcd.Config{
		Context:              context.Background(), // !!! a long-lived context must be used, the client may outlive the dial ctx
		Endpoints:            []string{cfg.credentials.Endpoint},
		DialTimeout:          cfg.connectTimeout,
		DialKeepAliveTimeout: cfg.keepAliveTimeout,
		DialKeepAliveTime:    cfg.keepAliveInterval,
		Username:             cfg.credentials.Username, // optional
		Password:             cfg.credentials.Password, // optional
		Logger:               etcdLogger,
		PermitWithoutStream:  true, // always send keep-alive pings
		DialOptions: []grpc.DialOption{
			grpc.WithBlock(), // wait for the connection
			grpc.WithReturnConnectionError(),
			grpc.WithConnectParams(grpc.ConnectParams{
				Backoff: backoff.Config{
					BaseDelay:  100 * time.Millisecond,
					Multiplier: 1.5,
					Jitter:     0.2,
					MaxDelay:   15 * time.Second,
				},
			}),
		},
	})
	if err != nil {
		return nil, errors.Errorf("cannot create etcd client: cannot connect: %w", err)
	}

	UseNamespace(c, cfg.credentials.Namespace)

	// Connection check: get cluster members
	if _, err := c.MemberList(connectCtx); err != nil {
		_ = c.Close()
		return nil, errors.Errorf("cannot create etcd client: cannot get cluster members: %w", err)
	}

	logger.Infof(`connected to etcd cluster "%s" | %s`, strings.Join(c.Endpoints(), ";"), time.Since(startTime))
	return c, nil
}
