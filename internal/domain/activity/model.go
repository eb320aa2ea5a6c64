package activity

import (
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

// Status is the state of a logged task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ActivityEntry is one task event logged against a project phase.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Phase     string    `json:"phase"`
	Status    Status    `json:"status"`
	Task      string    `json:"task"`
	CreatedAt time.Time `json:"created_at"`
}

var phaseAliases = map[string]string{
	artifact.PhaseRequirements: artifact.PhaseRequirements,
	artifact.PhaseDesign:       artifact.PhaseDesign,
	artifact.PhaseDevelopment:  artifact.PhaseDevelopment,
	artifact.PhaseTest:         artifact.PhaseTest,
	"要件定義":                     artifact.PhaseRequirements,
	"設計":                       artifact.PhaseDesign,
	"開発":                       artifact.PhaseDevelopment,
	"テスト":                      artifact.PhaseTest,
}

var statusAliases = map[string]Status{
	string(StatusTodo):       StatusTodo,
	string(StatusInProgress): StatusInProgress,
	string(StatusDone):       StatusDone,
	"未着手":                    StatusTodo,
	"進行中":                    StatusInProgress,
	"完了":                     StatusDone,
}

// ParsePhase normalizes a phase name. Japanese phase labels are accepted.
func ParsePhase(value string) (string, error) {
	phase, ok := phaseAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", ErrUnknownPhase
	}
	return phase, nil
}

// ParseStatus normalizes a task status. Japanese status labels are accepted.
func ParseStatus(value string) (Status, error) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", ErrUnknownStatus
	}
	return status, nil
}
