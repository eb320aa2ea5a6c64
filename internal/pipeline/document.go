package pipeline

import (
	"context"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
)

// DocumentRequest asks for a document derived from the project's latest upload.
type DocumentRequest struct {
	ProjectID    string
	DocumentType string
}

// GenerateDocument runs Document Generation.
func (p *Pipeline) GenerateDocument(ctx context.Context, tr *run.Tracker, req DocumentRequest) (*artifact.Document, error) {
	p.begin(tr)
	if _, err := p.project(ctx, req.ProjectID); err != nil {
		return nil, p.fetchFailed(tr, "project "+req.ProjectID, err)
	}
	upload, err := p.stores.Documents.Latest(ctx, req.ProjectID, artifact.DocTypeUploadedFile)
	if err != nil {
		return nil, p.fetchFailed(tr, "uploaded file for project "+req.ProjectID, err)
	}

	docType := strings.TrimSpace(req.DocumentType)
	gen := runLLM(ctx, p, tr, artifact.StageDocumentGeneration,
		prompt.DocumentInput{DocumentType: docType, Source: upload.Content.Plain()},
		parseDocument,
		func() artifact.Content { return fallbackDocument(docType) },
	)

	now := p.opts.Now()
	doc := &artifact.Document{
		ID:         p.opts.NewID(),
		ProjectID:  req.ProjectID,
		Type:       docType,
		Content:    gen.value,
		IsFallback: gen.fallback,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.persist(ctx, tr, doc.ID, doc.IsFallback, func(ctx context.Context) error {
		return p.stores.Documents.Create(ctx, doc)
	}); err != nil {
		return nil, err
	}
	return doc, nil
}
