package pipeline

import (
	"context"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/prompt"
)

// CodeRequest asks for source code implementing a document.
type CodeRequest struct {
	DocumentID string
	Language   string
}

// CodeFileName is the file name generated code is stored under.
func CodeFileName(language string) string {
	return "generated_code." + strings.ToLower(strings.TrimSpace(language))
}

// GenerateCode runs Code Generation.
func (p *Pipeline) GenerateCode(ctx context.Context, tr *run.Tracker, req CodeRequest) (*artifact.SourceCode, error) {
	p.begin(tr)
	doc, err := p.stores.Documents.Get(ctx, req.DocumentID)
	if err != nil {
		return nil, p.fetchFailed(tr, "document "+req.DocumentID, err)
	}
	tr.SetProjectID(doc.ProjectID)

	language := strings.TrimSpace(req.Language)
	gen := runLLM(ctx, p, tr, artifact.StageCodeGeneration,
		prompt.CodeInput{Language: language, Document: doc.Content},
		parseCode,
		func() string { return fallbackCode(language) },
	)

	code := &artifact.SourceCode{
		ID:         p.opts.NewID(),
		ProjectID:  doc.ProjectID,
		DocumentID: doc.ID,
		FileName:   CodeFileName(language),
		Content:    gen.value,
		Language:   language,
		IsFallback: gen.fallback,
		CreatedAt:  p.opts.Now(),
	}
	if err := p.persist(ctx, tr, code.ID, code.IsFallback, func(ctx context.Context) error {
		return p.stores.SourceCodes.Create(ctx, code)
	}); err != nil {
		return nil, err
	}
	return code, nil
}
