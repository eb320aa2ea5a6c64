package artifact

import "math"

// Progress phases, in report order.
const (
	PhaseRequirements = "requirements"
	PhaseDesign       = "design"
	PhaseDevelopment  = "development"
	PhaseTest         = "test"
)

// ProgressPhases is the fixed phase order of every report.
var ProgressPhases = []string{PhaseRequirements, PhaseDesign, PhaseDevelopment, PhaseTest}

const (
	StatusNotStarted = "not started"
	StatusInProgress = "in progress"
	StatusCompleted  = "completed"
)

// TaskCount tallies logged tasks for one phase.
type TaskCount struct {
	Total     int
	Completed int
}

// ComputePhases derives per-phase progress. Phases missing from counts report zero tasks.
func ComputePhases(counts map[string]TaskCount) []PhaseProgress {
	phases := make([]PhaseProgress, 0, len(ProgressPhases))
	for _, name := range ProgressPhases {
		c := counts[name]
		p := PhaseProgress{
			Name:           name,
			TotalTasks:     c.Total,
			CompletedTasks: c.Completed,
		}
		switch {
		case c.Total <= 0:
			p.Progress = 0
			p.Status = StatusNotStarted
		case c.Completed >= c.Total:
			p.Progress = 100
			p.Status = StatusCompleted
		default:
			p.Progress = int(math.Round(100 * float64(c.Completed) / float64(c.Total)))
			p.Status = StatusInProgress
		}
		phases = append(phases, p)
	}
	return phases
}

// OverallProgress is the rounded unweighted mean of phase progress.
func OverallProgress(phases []PhaseProgress) int {
	if len(phases) == 0 {
		return 0
	}
	var sum int
	for _, p := range phases {
		sum += p.Progress
	}
	return int(math.Round(float64(sum) / float64(len(phases))))
}
