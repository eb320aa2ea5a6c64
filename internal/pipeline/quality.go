package pipeline

import (
	"context"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
	"github.com/ganot/forgeline/internal/repository"
	"golang.org/x/sync/errgroup"
)

// QualityRequest selects which artifact families of a project to rate.
type QualityRequest struct {
	ProjectID string
	Items     []artifact.QualityItem
}

// CheckQuality runs Quality Check. One gateway call is made per item; the
// calls run concurrently and each falls back independently.
func (p *Pipeline) CheckQuality(ctx context.Context, tr *run.Tracker, req QualityRequest) (*artifact.Review, error) {
	p.begin(tr)
	if _, err := p.project(ctx, req.ProjectID); err != nil {
		return nil, p.fetchFailed(tr, "project "+req.ProjectID, err)
	}

	items := dedupeItems(req.Items)
	if len(items) == 0 {
		return nil, p.fetchFailed(tr, "at least one quality item", ErrPrecondition)
	}
	inputs := make([]prompt.QualityInput, len(items))
	for i, item := range items {
		artifacts, err := p.qualityArtifacts(ctx, req.ProjectID, item)
		if err != nil {
			return nil, p.fetchFailed(tr, item.Label(), err)
		}
		if len(artifacts) == 0 {
			return nil, p.fetchFailed(tr, item.Label()+" for project "+req.ProjectID, ErrPrecondition)
		}
		inputs[i] = prompt.QualityInput{Item: item, Artifacts: artifacts}
	}

	p.advance(tr, run.StatePrompting)
	prompts := make([]prompt.Prompt, len(items))
	buildErrs := make([]error, len(items))
	for i, in := range inputs {
		prompts[i], buildErrs[i] = prompt.Build(artifact.StageQualityCheck, in)
	}

	provider := p.ProviderFor(artifact.StageQualityCheck)
	tr.SetProvider(provider)
	p.advance(tr, run.StateGenerating)

	texts := make([]string, len(items))
	callErrs := make([]error, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.QualityConcurrency)
	for i := range items {
		if buildErrs[i] != nil {
			callErrs[i] = buildErrs[i]
			continue
		}
		g.Go(func() error {
			texts[i], callErrs[i] = p.call(gctx, artifact.StageQualityCheck, provider, prompts[i])
			// Per-item failures fall back; they never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	p.advance(tr, run.StateValidating)
	scores := make([]artifact.QualityScore, len(items))
	anyFallback := false
	for i, item := range items {
		err := callErrs[i]
		if err == nil {
			scores[i], err = parseQuality(item)(texts[i])
		}
		if err != nil {
			p.warnFallback(artifact.StageQualityCheck, provider, err)
			scores[i] = fallbackQuality(item)
			anyFallback = true
		}
	}

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = string(item)
	}
	review := &artifact.Review{
		ID:         p.opts.NewID(),
		ProjectID:  req.ProjectID,
		Kind:       artifact.ReviewQuality,
		Type:       strings.Join(labels, ", "),
		Quality:    &artifact.QualityResult{Items: scores},
		IsFallback: anyFallback,
		CreatedAt:  p.opts.Now(),
	}
	if err := p.persist(ctx, tr, review.ID, review.IsFallback, func(ctx context.Context) error {
		return p.stores.Reviews.Create(ctx, review)
	}); err != nil {
		return nil, err
	}
	return review, nil
}

const maxQualityArtifacts = 20

func (p *Pipeline) qualityArtifacts(ctx context.Context, projectID string, item artifact.QualityItem) ([]prompt.QualityArtifact, error) {
	opts := repository.ListOptions{Limit: maxQualityArtifacts}
	var out []prompt.QualityArtifact
	switch item {
	case artifact.QualityItemDocument:
		docs, err := p.stores.Documents.List(ctx, projectID, opts)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out = append(out, prompt.QualityArtifact{ID: d.ID, Name: d.Type, Content: clip(d.Content.Plain(), maxPromptContent)})
		}
	case artifact.QualityItemSourceCode:
		codes, err := p.stores.SourceCodes.List(ctx, projectID, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range codes {
			out = append(out, prompt.QualityArtifact{ID: c.ID, Name: c.FileName, Content: clip(c.Content, maxPromptContent)})
		}
	}
	return out, nil
}

func dedupeItems(items []artifact.QualityItem) []artifact.QualityItem {
	seen := make(map[artifact.QualityItem]bool, len(items))
	out := make([]artifact.QualityItem, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
