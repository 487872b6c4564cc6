package core

import "sync"

// eventLocks hands out one mutex per event so that read-modify-write cycles
// on a session do not interleave.
type eventLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: map[int64]*sync.Mutex{}}
}

// Lock blocks until the event's mutex is held and returns its unlock func.
func (l *eventLocks) Lock(eventID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
