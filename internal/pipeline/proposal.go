package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
	"github.com/ganot/forgeline/internal/repository"
)

// ProposalRequest asks for a proposal of a project laid out per a catalog template.
type ProposalRequest struct {
	ProjectID  string
	TemplateID string
}

const (
	maxProposalDocuments = 10
	maxPromptContent     = 4000
)

// ProposalKey is the blob key a proposal's PDF is stored under.
func ProposalKey(id string) string {
	return "proposals/" + id + ".pdf"
}

// CreateProposal runs Proposal Creation. It needs at least one document and
// one work estimate; the latest progress report is used when present.
func (p *Pipeline) CreateProposal(ctx context.Context, tr *run.Tracker, req ProposalRequest) (*artifact.Proposal, error) {
	p.begin(tr)
	tmpl, ok := LookupTemplate(req.TemplateID)
	if !ok {
		return nil, p.fetchFailed(tr, "template", fmt.Errorf("%w: %q", ErrUnknownTemplate, req.TemplateID))
	}
	proj, err := p.project(ctx, req.ProjectID)
	if err != nil {
		return nil, p.fetchFailed(tr, "project "+req.ProjectID, err)
	}
	docs, err := p.stores.Documents.List(ctx, req.ProjectID, repository.ListOptions{Limit: maxProposalDocuments})
	if err != nil {
		return nil, p.fetchFailed(tr, "documents", err)
	}
	if len(docs) == 0 {
		return nil, p.fetchFailed(tr, "documents for project "+req.ProjectID, ErrPrecondition)
	}
	estimates, err := p.stores.Estimates.List(ctx, req.ProjectID, repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, p.fetchFailed(tr, "work estimate", err)
	}
	if len(estimates) == 0 {
		return nil, p.fetchFailed(tr, "work estimate for project "+req.ProjectID, ErrPrecondition)
	}
	estimate := estimates[0].Estimate

	var progress *int
	reports, err := p.stores.Reports.List(ctx, req.ProjectID, repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, p.fetchFailed(tr, "progress report", err)
	}
	if len(reports) > 0 {
		overall := reports[0].Report.OverallProgress
		progress = &overall
	}

	sources := make([]prompt.DocumentSource, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, prompt.DocumentSource{ID: d.ID, Type: d.Type, Content: clip(d.Content.Plain(), maxPromptContent)})
	}

	gen := runLLM(ctx, p, tr, artifact.StageProposalCreation,
		prompt.ProposalInput{
			ProjectName:        proj.Name,
			ProjectDescription: proj.Description,
			TemplateName:       tmpl.Name,
			Sections:           tmpl.Sections,
			Documents:          sources,
			Estimate:           estimate,
			OverallProgress:    progress,
		},
		parseText,
		func() string { return fallbackProposal(proj.Name, proj.Description, tmpl, estimate, progress) },
	)

	now := p.opts.Now()
	proposal := &artifact.Proposal{
		ID:         p.opts.NewID(),
		ProjectID:  req.ProjectID,
		TemplateID: tmpl.ID,
		Content:    gen.value,
		IsFallback: gen.fallback,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.persist(ctx, tr, proposal.ID, proposal.IsFallback, func(ctx context.Context) error {
		return p.saveProposal(ctx, proj.Name, proposal)
	}); err != nil {
		return nil, err
	}
	return proposal, nil
}

// saveProposal stores the rendered PDF before inserting the row, and removes
// the blob again if the insert fails. A render failure leaves pdf_url unset.
func (p *Pipeline) saveProposal(ctx context.Context, projectName string, proposal *artifact.Proposal) error {
	var key string
	if p.opts.Renderer != nil && p.opts.Blobs != nil {
		pdf, err := p.opts.Renderer.RenderProposal(projectName+" Proposal", *proposal)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("proposal pdf rendering failed", "proposal_id", proposal.ID, "error", err)
			}
		} else {
			key, err = p.opts.Blobs.Put(ctx, ProposalKey(proposal.ID), pdf)
			if err != nil {
				return fmt.Errorf("storing proposal pdf: %w", err)
			}
			proposal.PDFURL = &key
		}
	}

	if err := p.stores.Proposals.Create(ctx, proposal); err != nil {
		if key != "" {
			if delErr := p.opts.Blobs.Delete(ctx, key); delErr != nil {
				err = errors.Join(err, fmt.Errorf("removing orphaned pdf: %w", delErr))
			}
			proposal.PDFURL = nil
		}
		return err
	}
	return nil
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
