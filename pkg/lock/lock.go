// Package lock provides per-flow mutual exclusion for the snapshot write
// step. Concurrent publishes of different flows run fully in parallel;
// publishes of the same flow serialize here.
package lock

import "context"

// Locker acquires a mutual-exclusion lock for a key. The returned release
// function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
