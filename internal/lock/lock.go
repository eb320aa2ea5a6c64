// Package lock serializes stage invocations per (project, stage) key.
package lock

import (
	"context"
	"errors"
)

// ErrNotHeld is returned when releasing a lock that expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// Locker acquires an exclusive lock on key. The returned release func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Key builds the lock key for a stage invocation.
func Key(projectID, stage string) string {
	return "forgeline:lock:" + projectID + ":" + stage
}
