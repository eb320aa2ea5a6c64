package run

import (
	"fmt"
	"sync"
	"time"
)

// Tracker drives a Run through the state machine and reports each transition.
// A nil *Tracker is valid and ignores all calls.
type Tracker struct {
	mu     sync.Mutex
	run    Run
	notify func(Run)
}

// NewTracker starts tracking r in StatePending. notify may be nil.
func NewTracker(r Run, notify func(Run)) *Tracker {
	r.State = StatePending
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	return &Tracker{run: r, notify: notify}
}

// Advance moves the run to next.
func (t *Tracker) Advance(next State) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	if !t.run.State.CanTransition(next) {
		from := t.run.State
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	t.run.State = next
	if next == StateDone || next == StateFailed {
		now := time.Now().UTC()
		t.run.FinishedAt = &now
	}
	snapshot := t.run
	t.mu.Unlock()

	if t.notify != nil {
		t.notify(snapshot)
	}
	return nil
}

// Fail moves the run to StateFailed and records cause.
func (t *Tracker) Fail(cause error) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	if !t.run.State.CanTransition(StateFailed) {
		from := t.run.State
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateFailed)
	}
	if cause != nil {
		t.run.Error = cause.Error()
	}
	t.mu.Unlock()
	return t.Advance(StateFailed)
}

// SetProvider records which provider served the run.
func (t *Tracker) SetProvider(name string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.run.Provider = name
	t.mu.Unlock()
}

// SetProjectID records the owning project once it is known.
func (t *Tracker) SetProjectID(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.run.ProjectID = id
	t.mu.Unlock()
}

// SetResult records the persisted artifact.
func (t *Tracker) SetResult(artifactID string, isFallback bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.run.ArtifactID = artifactID
	t.run.IsFallback = isFallback
	t.mu.Unlock()
}

// Snapshot returns a copy of the current run.
func (t *Tracker) Snapshot() Run {
	if t == nil {
		return Run{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run
}
