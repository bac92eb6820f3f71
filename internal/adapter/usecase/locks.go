package usecase

import "sync"

// campaignLocks hands out one advisory mutex per campaign id so that
// operations on the same campaign never interleave their
// read-validate-write sequence. Locks are never removed; the set of
// ids a process touches is small.
type campaignLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newCampaignLocks() *campaignLocks {
	return &campaignLocks{m: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for id and returns it for unlocking.
func (l *campaignLocks) acquire(id int64) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m
}
