// Package dispatch provides the update-coalescing dispatcher.
//
// Incoming update events are admitted as pending tasks, at most one per key.
// A burst of updates for one key collapses into the latest value.
// Tasks are executed by a worker pool with a fixed concurrency,
// never two tasks for the same key at once.
package dispatch

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/event"
)

// Publisher commits a value to the record store.
// Publishers are connection-scoped, each one is captured by the tasks admitted during its connection.
type Publisher interface {
	Publish(ctx context.Context, key, value string, payload []byte) error
}

type Config struct {
	// Concurrency is the maximum number of concurrently executed tasks.
	Concurrency int
	// RequeueCooldown is the delay before a task colliding with a running one is re-queued.
	RequeueCooldown time.Duration
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Admitted      int64
	Coalesced     int64
	Published     int64
	PublishErrors int64
	StaleDropped  int64
	QueueLen      int64
	PendingKeys   int
	RunningKeys   int
}

type Dispatcher struct {
	logger  log.Logger
	clock   clock.Clock
	cfg     Config
	store   *Store
	running *runningKeys
	queue   *Queue

	admitted      *atomic.Int64
	coalesced     *atomic.Int64
	published     *atomic.Int64
	publishErrors *atomic.Int64
	staleDropped  *atomic.Int64
}

func New(logger log.Logger, clk clock.Clock, cfg Config) *Dispatcher {
	return &Dispatcher{
		logger:        logger.AddPrefix("[dispatch]"),
		clock:         clk,
		cfg:           cfg,
		store:         NewStore(),
		running:       newRunningKeys(),
		queue:         NewQueue(cfg.Concurrency),
		admitted:      atomic.NewInt64(0),
		coalesced:     atomic.NewInt64(0),
		published:     atomic.NewInt64(0),
		publishErrors: atomic.NewInt64(0),
		staleDropped:  atomic.NewInt64(0),
	}
}

// Dispatch feeds one update event into the dispatcher.
// A newly admitted task is scheduled for execution,
// an event for an already pending key only refreshes the pending task.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.UpdateEvent, publisher Publisher) {
	task, admitted := d.store.AdmitOrMerge(ev.Key, ev.Value, ev.Payload)
	if !admitted {
		d.coalesced.Inc()
		d.logger.Debugf(`coalesced update for key "%s"`, ev.Key)
		return
	}
	d.admitted.Inc()
	d.queue.Enqueue(func() {
		d.run(ctx, ev.Key, task, publisher)
	})
}

// Close stops the worker pool, started tasks finish, waiting tasks are dropped.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Admitted:      d.admitted.Load(),
		Coalesced:     d.coalesced.Load(),
		Published:     d.published.Load(),
		PublishErrors: d.publishErrors.Load(),
		StaleDropped:  d.staleDropped.Load(),
		QueueLen:      d.queue.Len(),
		PendingKeys:   d.store.Len(),
		RunningKeys:   d.running.len(),
	}
}

// run executes one scheduled attempt for the key.
//
// The running marker is held for the whole publish call, so for any key
// at most one publish call is in flight at any time. A failed publish is
// logged and dropped, a later event for the key carries a complete new value,
// so there is nothing to retry.
func (d *Dispatcher) run(ctx context.Context, key string, scheduled *PendingTask, publisher Publisher) {
	if !d.running.tryAcquire(key) {
		// A task for the key is being published right now, wait and retry.
		if !d.sleep(ctx, d.cfg.RequeueCooldown) {
			return
		}
		// Retry only if the captured task is still the pending one.
		// Once it was superseded, a fresher attempt is already scheduled.
		if d.store.Pending(key) != scheduled {
			d.staleDropped.Inc()
			d.logger.Debugf(`dropped superseded task for key "%s"`, key)
			return
		}
		d.queue.Enqueue(func() {
			d.run(ctx, key, scheduled, publisher)
		})
		return
	}
	defer d.running.release(key)

	task := d.store.Take(key)
	if task == nil {
		// Must never happen: an execution is scheduled only for an admitted task.
		d.logger.Errorf(`no pending task found for the scheduled key "%s"`, key)
		return
	}

	if err := publisher.Publish(ctx, key, task.Value, task.Payload); err != nil {
		d.publishErrors.Inc()
		d.logger.Warnf(`cannot publish key "%s": %s`, key, err)
		return
	}
	d.published.Inc()
}

// sleep waits for the delay, it returns false if the context was cancelled meanwhile.
func (d *Dispatcher) sleep(ctx context.Context, delay time.Duration) bool {
	timer := d.clock.Timer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
