// Package events publishes run state transitions keyed by generation-request id.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/metrics"
)

// Event is one run state transition.
type Event struct {
	RequestID  string    `json:"request_id"`
	ProjectID  string    `json:"project_id"`
	Stage      string    `json:"stage"`
	State      run.State `json:"state"`
	ArtifactID string    `json:"artifact_id,omitempty"`
	IsFallback bool      `json:"is_fallback"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Terminal reports whether no further events follow for the request.
func (e Event) Terminal() bool {
	return e.State == run.StateDone || e.State == run.StateFailed
}

// FromRun snapshots r as an event.
func FromRun(r run.Run) Event {
	at := r.StartedAt
	if r.FinishedAt != nil {
		at = *r.FinishedAt
	}
	if !r.Terminal() {
		at = time.Now().UTC()
	}
	return Event{
		RequestID:  r.ID,
		ProjectID:  r.ProjectID,
		Stage:      r.Stage,
		State:      r.State,
		ArtifactID: r.ArtifactID,
		IsFallback: r.IsFallback,
		Error:      r.Error,
		At:         at,
	}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to several publishers. A failing sink does not
// stop delivery to the others.
type Multi struct {
	sinks  map[string]Publisher
	logger *slog.Logger
}

// NewMulti creates a fan-out publisher. Sinks are keyed by a name used in logs and metrics.
func NewMulti(logger *slog.Logger) *Multi {
	return &Multi{sinks: make(map[string]Publisher), logger: logger}
}

// Add registers a named sink.
func (m *Multi) Add(name string, p Publisher) *Multi {
	m.sinks[name] = p
	return m
}

func (m *Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for name, sink := range m.sinks {
		if err := sink.Publish(ctx, e); err != nil {
			metrics.RecordEventPublishFailure(name)
			if m.logger != nil {
				m.logger.Warn("event publish failed", "sink", name, "request_id", e.RequestID, "state", e.State, "error", err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
