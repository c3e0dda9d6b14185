package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/common/servicectx"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/config"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/event"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

type testDeps struct {
	logger log.Logger
	clk    clock.Clock
	proc   *servicectx.Process
	cfg    config.Config
}

func (d *testDeps) Logger() log.Logger           { return d.logger }
func (d *testDeps) Clock() clock.Clock           { return d.clk }
func (d *testDeps) Process() *servicectx.Process { return d.proc }
func (d *testDeps) Config() config.Config        { return d.cfg }

func newTestDeps(t *testing.T, logger log.Logger) *testDeps {
	t.Helper()
	cfg := config.New()
	cfg.SourceURL = "wss://source.local"
	cfg.Etcd.Endpoint = "etcd.local:2379"
	cfg.Concurrency = 2
	cfg.RequeueCooldown = 5 * time.Millisecond
	cfg.ReconnectCooldown = 5 * time.Millisecond
	return &testDeps{
		logger: logger,
		clk:    clock.New(),
		proc:   servicectx.NewForTest(t),
		cfg:    cfg,
	}
}

type fakeStream struct {
	events chan event.UpdateEvent
	err    error
	once   sync.Once
}

func newFakeStream(err error) *fakeStream {
	return &fakeStream{events: make(chan event.UpdateEvent), err: err}
}

func (s *fakeStream) Events() <-chan event.UpdateEvent { return s.events }
func (s *fakeStream) Err() error                       { return s.err }
func (s *fakeStream) Close()                           { s.once.Do(func() { close(s.events) }) }

type fakePublisher struct {
	lock   sync.Mutex
	calls  []string
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, key, value string, _ []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.calls = append(p.calls, key+"="+value)
	return nil
}

func (p *fakePublisher) Close() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
}

func (p *fakePublisher) isClosed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

func (p *fakePublisher) callsSnapshot() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// A failed subscription is re-created after the cooldown,
// each iteration gets a fresh publisher, events flow into the dispatcher.
func TestSupervisorReconnect(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	d := newTestDeps(t, logger)

	var lock sync.Mutex
	var publishers []*fakePublisher
	var streams []*fakeStream

	subscribeCount := atomic.NewInt64(0)
	subscribe := func(ctx context.Context) (Stream, error) {
		lock.Lock()
		defer lock.Unlock()
		var s *fakeStream
		if subscribeCount.Inc() == 1 {
			// The first subscription emits one event and fails
			s = newFakeStream(errors.New("connection lost"))
			go func() {
				s.events <- event.UpdateEvent{Key: "k", Value: "a"}
				s.Close()
			}()
		} else {
			// Next subscriptions stay open until the shutdown
			s = newFakeStream(errors.New("cancelled"))
			go func() {
				<-ctx.Done()
				s.Close()
			}()
		}
		streams = append(streams, s)
		return s, nil
	}
	newPublisher := func(ctx context.Context) (Publisher, error) {
		lock.Lock()
		defer lock.Unlock()
		p := &fakePublisher{}
		publishers = append(publishers, p)
		return p, nil
	}

	sup := New(d, WithSubscribeFn(subscribe), WithNewPublisherFn(newPublisher))

	// The event from the first connection is published by the first publisher
	assert.Eventually(t, func() bool {
		return sup.Dispatcher().Stats().Published == 1
	}, 5*time.Second, time.Millisecond)

	// The failure triggers exactly one new subscription attempt after the cooldown
	assert.Eventually(t, func() bool {
		return subscribeCount.Load() == 2
	}, 5*time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), subscribeCount.Load())

	lock.Lock()
	defer lock.Unlock()
	assert.Len(t, publishers, 2)
	assert.Equal(t, []string{"k=a"}, publishers[0].callsSnapshot())
	assert.True(t, publishers[0].isClosed())
	assert.False(t, publishers[1].isClosed())

	assert.Contains(t, logger.ErrorMessages(), "connection lost")
	assert.Contains(t, logger.InfoMessages(), "reconnect in 5ms")
	assert.Contains(t, logger.InfoMessages(), `subscribed to "wss://source.local/v1/watch/all"`)
}

// Subscriptions are retried indefinitely under a sustained failure.
func TestSupervisorSustainedFailure(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	d := newTestDeps(t, logger)

	attempts := atomic.NewInt64(0)
	subscribe := func(ctx context.Context) (Stream, error) {
		attempts.Inc()
		return nil, errors.New("source is down")
	}
	newPublisher := func(ctx context.Context) (Publisher, error) {
		return &fakePublisher{}, nil
	}

	New(d, WithSubscribeFn(subscribe), WithNewPublisherFn(newPublisher))

	assert.Eventually(t, func() bool {
		return attempts.Load() >= 3
	}, 5*time.Second, time.Millisecond)
	assert.Contains(t, logger.ErrorMessages(), "source is down")
}

// A publisher creation failure is handled like any other connection failure.
func TestSupervisorPublisherFailure(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	d := newTestDeps(t, logger)

	attempts := atomic.NewInt64(0)
	subscribe := func(ctx context.Context) (Stream, error) {
		assert.Fail(t, "subscribe must not be called when the publisher cannot be created")
		return nil, nil
	}
	newPublisher := func(ctx context.Context) (Publisher, error) {
		attempts.Inc()
		return nil, errors.New("etcd is down")
	}

	New(d, WithSubscribeFn(subscribe), WithNewPublisherFn(newPublisher))

	assert.Eventually(t, func() bool {
		return attempts.Load() >= 2
	}, 5*time.Second, time.Millisecond)
	assert.Contains(t, logger.ErrorMessages(), "etcd is down")
}
