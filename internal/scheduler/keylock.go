package scheduler

import (
	"sync"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// keyLocks hands out one mutex per target id. Unused mutexes are dropped,
// so churn through many ids doesn't grow the map.
type keyLocks struct {
	mu sync.Mutex
	m  map[domain.TargetID]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[domain.TargetID]*keyLock)}
}

// Lock blocks until id is held and returns the matching unlock.
func (k *keyLocks) Lock(id domain.TargetID) (unlock func()) {
	k.mu.Lock()
	l := k.m[id]
	if l == nil {
		l = &keyLock{}
		k.m[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyLocks) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}
