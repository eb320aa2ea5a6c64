package run

import "time"

// State is a stage invocation's position in the pipeline state machine.
type State string

const (
	StatePending        State = "pending"
	StateFetchingInputs State = "fetching_inputs"
	StatePrompting      State = "prompting"
	StateGenerating     State = "generating"
	StateValidating     State = "validating"
	StatePersisting     State = "persisting"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Run records one stage invocation, keyed by its generation-request id.
type Run struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Stage      string     `json:"stage"`
	State      State      `json:"state"`
	Provider   string     `json:"provider,omitempty"`
	ArtifactID string     `json:"artifact_id,omitempty"`
	IsFallback bool       `json:"is_fallback"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the run can no longer change state.
func (r Run) Terminal() bool {
	return r.State == StateDone || r.State == StateFailed
}
