package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
)

// ConsistencyRequest names the documents to cross-check.
type ConsistencyRequest struct {
	DocumentIDs []string
}

// CheckConsistency runs Consistency Check. Every id must exist and all
// documents must belong to the same project.
func (p *Pipeline) CheckConsistency(ctx context.Context, tr *run.Tracker, req ConsistencyRequest) (*artifact.Review, error) {
	p.begin(tr)

	ids := dedupe(req.DocumentIDs)
	if len(ids) == 0 {
		return nil, p.fetchFailed(tr, "at least one document", ErrPrecondition)
	}
	docs, err := p.stores.Documents.GetMany(ctx, ids)
	if err != nil {
		return nil, p.fetchFailed(tr, "documents", err)
	}
	if len(docs) != len(ids) {
		return nil, p.fetchFailed(tr, "documents "+strings.Join(missingIDs(ids, docs), ", "), ErrPrecondition)
	}
	projectID := docs[0].ProjectID
	for _, d := range docs[1:] {
		if d.ProjectID != projectID {
			return nil, p.fetchFailed(tr, "documents", fmt.Errorf("%w: %s and %s", ErrMixedProjects, projectID, d.ProjectID))
		}
	}

	tr.SetProjectID(projectID)

	sources := make([]prompt.DocumentSource, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, prompt.DocumentSource{ID: d.ID, Type: d.Type, Content: d.Content.Plain()})
	}

	gen := runLLM(ctx, p, tr, artifact.StageConsistencyCheck,
		prompt.ConsistencyInput{Documents: sources},
		parseConsistency,
		fallbackConsistency,
	)

	result := gen.value
	review := &artifact.Review{
		ID:          p.opts.NewID(),
		ProjectID:   projectID,
		Kind:        artifact.ReviewConsistency,
		Type:        string(artifact.ReviewConsistency),
		Consistency: &result,
		IsFallback:  gen.fallback,
		CreatedAt:   p.opts.Now(),
	}
	if err := p.persist(ctx, tr, review.ID, review.IsFallback, func(ctx context.Context) error {
		return p.stores.Reviews.Create(ctx, review)
	}); err != nil {
		return nil, err
	}
	return review, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, docs []artifact.Document) []string {
	found := make(map[string]bool, len(docs))
	for _, d := range docs {
		found[d.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
