package repository

import (
	"context"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

// ListOptions filters and pages artifact listings. Results are ordered by
// creation time, newest first.
type ListOptions struct {
	Types  []string
	Limit  int
	Offset int
}

// DocumentRepository manages document persistence
type DocumentRepository interface {
	Create(ctx context.Context, doc *artifact.Document) error
	Get(ctx context.Context, id string) (*artifact.Document, error)
	GetMany(ctx context.Context, ids []string) ([]artifact.Document, error)
	List(ctx context.Context, projectID string, opts ListOptions) ([]artifact.Document, error)
	Latest(ctx context.Context, projectID, docType string) (*artifact.Document, error)
	Search(ctx context.Context, projectID, query string, opts ListOptions) ([]artifact.Document, error)
}

// SourceCodeRepository manages generated source code persistence
type SourceCodeRepository interface {
	Create(ctx context.Context, code *artifact.SourceCode) error
	Get(ctx context.Context, id string) (*artifact.SourceCode, error)
	List(ctx context.Context, projectID string, opts ListOptions) ([]artifact.SourceCode, error)
}

// ReviewRepository manages consistency and quality check results
type ReviewRepository interface {
	Create(ctx context.Context, review *artifact.Review) error
	Get(ctx context.Context, id string) (*artifact.Review, error)
	List(ctx context.Context, projectID string, kind artifact.ReviewKind, opts ListOptions) ([]artifact.Review, error)
}

// EstimateRepository manages work estimates
type EstimateRepository interface {
	Create(ctx context.Context, est *artifact.WorkEstimate) error
	Get(ctx context.Context, id string) (*artifact.WorkEstimate, error)
	List(ctx context.Context, projectID string, opts ListOptions) ([]artifact.WorkEstimate, error)
	Update(ctx context.Context, est *artifact.WorkEstimate) error
}

// ProgressReportRepository manages progress reports
type ProgressReportRepository interface {
	Create(ctx context.Context, report *artifact.ProgressReport) error
	Get(ctx context.Context, id string) (*artifact.ProgressReport, error)
	List(ctx context.Context, projectID string, opts ListOptions) ([]artifact.ProgressReport, error)
}

// ProposalRepository manages proposals
type ProposalRepository interface {
	Create(ctx context.Context, p *artifact.Proposal) error
	Get(ctx context.Context, id string) (*artifact.Proposal, error)
	List(ctx context.Context, projectID string, opts ListOptions) ([]artifact.Proposal, error)
	SetPDFURL(ctx context.Context, id, url string) error
}
