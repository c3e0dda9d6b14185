package dispatch

import (
	"github.com/sasha-s/go-deadlock"
)

// runningKeys tracks the keys whose publish call is currently in flight.
// It prevents two concurrent publish calls for the same key.
type runningKeys struct {
	lock deadlock.Mutex
	keys map[string]bool
}

func newRunningKeys() *runningKeys {
	return &runningKeys{keys: make(map[string]bool)}
}

// tryAcquire marks the key as running.
// It returns false if the key is already running.
func (r *runningKeys) tryAcquire(key string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.keys[key] {
		return false
	}
	r.keys[key] = true
	return true
}

func (r *runningKeys) release(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.keys, key)
}

func (r *runningKeys) len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.keys)
}
