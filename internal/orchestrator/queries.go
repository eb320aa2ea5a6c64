package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
)

// CreateProjectRequest defines a new project.
type CreateProjectRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (o *Orchestrator) CreateProject(ctx context.Context, req CreateProjectRequest) (*project.Project, error) {
	proj, err := o.d.Projects.Create(ctx, project.CreateRequest{ID: req.ID, Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, mapQueryError("project", err)
	}
	return proj, nil
}

func (o *Orchestrator) ListProjects(ctx context.Context) ([]project.ProjectSummary, error) {
	list, err := o.d.Projects.List(ctx)
	if err != nil {
		return nil, mapQueryError("projects", err)
	}
	return list, nil
}

func (o *Orchestrator) GetProject(ctx context.Context, id string) (*project.Project, error) {
	proj, err := o.d.Projects.Get(ctx, id)
	if err != nil {
		return nil, mapQueryError("project", err)
	}
	return proj, nil
}

// UploadFile stores an uploaded file as the project's newest uploaded_file document.
func (o *Orchestrator) UploadFile(ctx context.Context, upload ingest.Upload) (*artifact.Document, error) {
	if strings.TrimSpace(upload.ProjectID) == "" {
		return nil, invalid("project_id", "is required")
	}
	doc, err := o.d.Ingest.UploadFile(ctx, upload)
	if err != nil {
		return nil, mapQueryError("project", err)
	}
	return doc, nil
}

// LogActivityRequest records a task event. Phase and status accept Japanese labels.
type LogActivityRequest struct {
	ProjectID string     `json:"project_id"`
	Phase     string     `json:"phase"`
	Status    string     `json:"status"`
	Task      string     `json:"task"`
	At        *time.Time `json:"at,omitempty"`
}

func (o *Orchestrator) LogActivity(ctx context.Context, req LogActivityRequest) (*activity.ActivityEntry, error) {
	if _, err := o.d.Projects.Get(ctx, req.ProjectID); err != nil {
		return nil, mapQueryError("project", err)
	}
	entry := &activity.ActivityEntry{
		ProjectID: req.ProjectID,
		Phase:     req.Phase,
		Status:    activity.Status(req.Status),
		Task:      req.Task,
	}
	if req.At != nil {
		entry.CreatedAt = req.At.UTC()
	}
	if err := o.d.Activity.LogActivity(ctx, entry); err != nil {
		return nil, mapQueryError("project", err)
	}
	return entry, nil
}

func (o *Orchestrator) ListActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	if opts.Phase != nil {
		phase, err := activity.ParsePhase(*opts.Phase)
		if err != nil {
			return nil, invalid("phase", "unknown phase %q", *opts.Phase)
		}
		opts.Phase = &phase
	}
	list, err := o.d.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, mapQueryError("activity", err)
	}
	return list, nil
}

// AdjustEstimateRequest replaces the hours of the named phases.
type AdjustEstimateRequest struct {
	EstimateID string                `json:"estimate_id"`
	Breakdown  []artifact.PhaseHours `json:"breakdown"`
}

// AdjustEstimate applies manual changes; the total is recomputed from the breakdown.
func (o *Orchestrator) AdjustEstimate(ctx context.Context, req AdjustEstimateRequest) (*artifact.WorkEstimate, error) {
	if len(req.Breakdown) == 0 {
		return nil, invalid("breakdown", "at least one phase is required")
	}
	est, err := o.d.Estimates.Get(ctx, req.EstimateID)
	if err != nil {
		return nil, mapQueryError("work estimate", err)
	}
	adjusted, err := est.Estimate.Adjust(req.Breakdown)
	if err != nil {
		return nil, mapQueryError("work estimate", err)
	}
	est.Estimate = adjusted
	est.UpdatedAt = o.now()
	if err := o.d.Estimates.Update(ctx, est); err != nil {
		return nil, mapQueryError("work estimate", err)
	}
	if o.logger != nil {
		o.logger.Info("estimate adjusted", "estimate_id", est.ID, "total_hours", adjusted.TotalHours)
	}
	return est, nil
}

func (o *Orchestrator) GetDocument(ctx context.Context, id string) (*artifact.Document, error) {
	doc, err := o.d.Documents.Get(ctx, id)
	if err != nil {
		return nil, mapQueryError("document", err)
	}
	return doc, nil
}

func (o *Orchestrator) ListDocuments(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Document, error) {
	docs, err := o.d.Documents.List(ctx, projectID, opts)
	if err != nil {
		return nil, mapQueryError("documents", err)
	}
	return docs, nil
}

func (o *Orchestrator) SearchDocuments(ctx context.Context, projectID, query string, opts repository.ListOptions) ([]artifact.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalid("q", "is required")
	}
	docs, err := o.d.Documents.Search(ctx, projectID, query, opts)
	if err != nil {
		return nil, mapQueryError("documents", err)
	}
	return docs, nil
}

func (o *Orchestrator) GetSourceCode(ctx context.Context, id string) (*artifact.SourceCode, error) {
	code, err := o.d.SourceCodes.Get(ctx, id)
	if err != nil {
		return nil, mapQueryError("source code", err)
	}
	return code, nil
}

// LatestReview returns the newest review of kind, or of either kind when kind is empty.
func (o *Orchestrator) LatestReview(ctx context.Context, projectID string, kind artifact.ReviewKind) (*artifact.Review, error) {
	if kind != "" && !kind.Valid() {
		return nil, invalid("kind", "must be consistency or quality")
	}
	list, err := o.d.Reviews.List(ctx, projectID, kind, repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, mapQueryError("review", err)
	}
	if len(list) == 0 {
		return nil, notFound("review", artifact.ErrReviewNotFound)
	}
	return &list[0], nil
}

func (o *Orchestrator) LatestEstimate(ctx context.Context, projectID string) (*artifact.WorkEstimate, error) {
	list, err := o.d.Estimates.List(ctx, projectID, repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, mapQueryError("work estimate", err)
	}
	if len(list) == 0 {
		return nil, notFound("work estimate", artifact.ErrEstimateNotFound)
	}
	return &list[0], nil
}

func (o *Orchestrator) LatestProgressReport(ctx context.Context, projectID string) (*artifact.ProgressReport, error) {
	list, err := o.d.Reports.List(ctx, projectID, repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, mapQueryError("progress report", err)
	}
	if len(list) == 0 {
		return nil, notFound("progress report", artifact.ErrReportNotFound)
	}
	return &list[0], nil
}

func (o *Orchestrator) GetProposal(ctx context.Context, id string) (*artifact.Proposal, error) {
	p, err := o.d.Proposals.Get(ctx, id)
	if err != nil {
		return nil, mapQueryError("proposal", err)
	}
	return p, nil
}

// ProposalPDF returns the rendered PDF of a proposal.
func (o *Orchestrator) ProposalPDF(ctx context.Context, id string) ([]byte, error) {
	p, err := o.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PDFURL == nil || o.d.Blobs == nil {
		return nil, notFound("proposal pdf", artifact.ErrProposalNotFound)
	}
	data, err := o.d.Blobs.Get(ctx, *p.PDFURL)
	if err != nil {
		return nil, mapBlobError(err)
	}
	return data, nil
}

func (o *Orchestrator) GetRun(ctx context.Context, id string) (*run.Run, error) {
	r, err := o.d.Runs.Get(ctx, id)
	if err != nil {
		return nil, mapQueryError("run", err)
	}
	return r, nil
}

func (o *Orchestrator) ListTemplates() []pipeline.Template {
	return pipeline.Templates()
}
