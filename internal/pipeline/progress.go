package pipeline

import (
	"context"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
)

// ProgressRequest asks for a progress report over an inclusive period.
type ProgressRequest struct {
	ProjectID string
	Period    artifact.Period
}

// ReportProgress runs Progress Report. Phase figures come from the activity
// log; only the issues are generated.
func (p *Pipeline) ReportProgress(ctx context.Context, tr *run.Tracker, req ProgressRequest) (*artifact.ProgressReport, error) {
	p.begin(tr)
	if req.Period.Start.After(req.Period.End) {
		return nil, p.fetchFailed(tr, "period", ErrInvalidPeriod)
	}
	if _, err := p.project(ctx, req.ProjectID); err != nil {
		return nil, p.fetchFailed(tr, "project "+req.ProjectID, err)
	}
	start, end := req.Period.Start, req.Period.End
	entries, err := p.stores.Activity.List(ctx, activity.ListActivityOptions{
		ProjectID: req.ProjectID,
		From:      &start,
		To:        &end,
	})
	if err != nil {
		return nil, p.fetchFailed(tr, "activity", err)
	}

	phases := artifact.ComputePhases(activity.Tally(entries))
	overall := artifact.OverallProgress(phases)

	gen := runLLM(ctx, p, tr, artifact.StageProgressReport,
		prompt.ProgressInput{OverallProgress: overall, Phases: phases, Period: req.Period},
		parseIssues,
		func() []string { return fallbackIssues(phases) },
	)

	now := p.opts.Now()
	report := &artifact.ProgressReport{
		ID:        p.opts.NewID(),
		ProjectID: req.ProjectID,
		Report: artifact.Report{
			OverallProgress: overall,
			Phases:          phases,
			Issues:          gen.value,
			Period:          req.Period,
			GeneratedAt:     now,
		},
		IsFallback: gen.fallback,
		CreatedAt:  now,
	}
	if err := p.persist(ctx, tr, report.ID, report.IsFallback, func(ctx context.Context) error {
		return p.stores.Reports.Create(ctx, report)
	}); err != nil {
		return nil, err
	}
	return report, nil
}
