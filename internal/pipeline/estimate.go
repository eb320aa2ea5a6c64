package pipeline

import (
	"context"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
	"github.com/ganot/forgeline/internal/repository"
)

// EstimateRequest asks for a work estimate of a project.
type EstimateRequest struct {
	ProjectID string
}

// EstimateWork runs Work Estimation. The persisted total always equals the
// breakdown sum.
func (p *Pipeline) EstimateWork(ctx context.Context, tr *run.Tracker, req EstimateRequest) (*artifact.WorkEstimate, error) {
	p.begin(tr)
	proj, err := p.project(ctx, req.ProjectID)
	if err != nil {
		return nil, p.fetchFailed(tr, "project "+req.ProjectID, err)
	}
	docs, err := p.stores.Documents.List(ctx, req.ProjectID, repository.ListOptions{})
	if err != nil {
		return nil, p.fetchFailed(tr, "documents", err)
	}
	codes, err := p.stores.SourceCodes.List(ctx, req.ProjectID, repository.ListOptions{})
	if err != nil {
		return nil, p.fetchFailed(tr, "source codes", err)
	}

	in := prompt.EstimateInput{
		ProjectName:        proj.Name,
		ProjectDescription: proj.Description,
		DocumentCount:      len(docs),
		SourceCodeCount:    len(codes),
		DocumentTypes:      make(map[string]int),
		Languages:          make(map[string]int),
	}
	for _, d := range docs {
		in.DocumentTypes[d.Type]++
	}
	for _, c := range codes {
		in.Languages[c.Language]++
	}

	gen := runLLM(ctx, p, tr, artifact.StageWorkEstimation, in, parseEstimate, fallbackEstimate)

	now := p.opts.Now()
	est := &artifact.WorkEstimate{
		ID:         p.opts.NewID(),
		ProjectID:  req.ProjectID,
		Estimate:   gen.value,
		IsFallback: gen.fallback,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.persist(ctx, tr, est.ID, est.IsFallback, func(ctx context.Context) error {
		return p.stores.Estimates.Create(ctx, est)
	}); err != nil {
		return nil, err
	}
	return est, nil
}
