package dispatch

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/atomic"
)

// Queue is a FIFO queue of work units drained by a fixed number of workers.
// Enqueue never blocks and the queue depth is unbounded,
// only the number of concurrently executed units is limited.
// The depth stays naturally low, because admissions are capped by the key coalescing.
type Queue struct {
	lock   deadlock.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
	wg     sync.WaitGroup
	length *atomic.Int64
}

// NewQueue creates the queue and starts the workers.
func NewQueue(workers int) *Queue {
	q := &Queue{length: atomic.NewInt64(0)}
	q.cond = sync.NewCond(&q.lock)
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue appends the work unit to the tail.
// Units enqueued after Close are dropped.
func (q *Queue) Enqueue(fn func()) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, fn)
	q.length.Inc()
	q.cond.Signal()
}

// Len returns the number of waiting work units, for instrumentation only.
func (q *Queue) Len() int64 {
	return q.length.Load()
}

// Close stops the workers and waits until the started work units finish.
// Waiting units are dropped.
func (q *Queue) Close() {
	q.lock.Lock()
	q.closed = true
	q.items = nil
	q.length.Store(0)
	q.cond.Broadcast()
	q.lock.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.lock.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.lock.Unlock()
			return
		}
		fn := q.items[0]
		q.items = q.items[1:]
		q.length.Dec()
		q.lock.Unlock()
		fn()
	}
}
