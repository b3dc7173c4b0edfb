package bot

import (
	"sync"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
)

// sessionLocks hands out one mutex per session. An entry lives only while
// some Handle call holds or waits for it.
type sessionLocks struct {
	mu sync.Mutex
	m  map[conversation.Key]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

// acquire blocks until key's lock is held and returns its release func.
func (l *sessionLocks) acquire(key conversation.Key) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[conversation.Key]*sessionLock)
	}
	sl, ok := l.m[key]
	if !ok {
		sl = &sessionLock{}
		l.m[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.m, key)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
