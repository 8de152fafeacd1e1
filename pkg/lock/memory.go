package lock

import (
	"context"
	"sync"
)

// KeyedLocker serializes callers per key within a single process. Entries
// are reference-counted and removed once the last holder releases, so the
// map does not grow with the number of flows ever published.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*lockEntry)}
}

func (l *KeyedLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}

	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once

	release := func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()

			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, key)
			}

			l.mu.Unlock()
		})
	}

	return release, nil
}
