package dispatch

import (
	"github.com/sasha-s/go-deadlock"
)

// PendingTask holds the latest not-yet-started data for a key.
// It is owned by the Store and mutated in place when a newer event
// arrives for the key while the task is still pending.
type PendingTask struct {
	Value   string
	Payload []byte
}

// Store maps a key to its pending task.
// An entry exists only between the admission and the start of the execution.
// The *PendingTask pointer serves as the identity of one admission:
// a merge keeps the pointer, a new admission after Take creates a new one.
type Store struct {
	lock  deadlock.Mutex
	tasks map[string]*PendingTask
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]*PendingTask)}
}

// AdmitOrMerge admits a new pending task for the key, or merges the value
// into the existing one. The caller must schedule an execution
// if and only if admitted=true, a merged task is already scheduled.
func (s *Store) AdmitOrMerge(key, value string, payload []byte) (task *PendingTask, admitted bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if task, found := s.tasks[key]; found {
		task.Value = value
		task.Payload = payload
		return task, false
	}
	task = &PendingTask{Value: value, Payload: payload}
	s.tasks[key] = task
	return task, true
}

// Take removes and returns the pending task for the key, or nil if there is none.
func (s *Store) Take(key string) *PendingTask {
	s.lock.Lock()
	defer s.lock.Unlock()
	task := s.tasks[key]
	delete(s.tasks, key)
	return task
}

// Pending returns the identity of the currently pending task for the key, or nil.
func (s *Store) Pending(key string) *PendingTask {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tasks[key]
}

// Len returns the number of pending tasks.
func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.tasks)
}
