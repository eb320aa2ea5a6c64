package orchestrator

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/pipeline"
)

// DocumentGenerationRequest asks for a document derived from the latest upload.
type DocumentGenerationRequest struct {
	RequestID    string `json:"request_id,omitempty"`
	ProjectID    string `json:"project_id"`
	DocumentType string `json:"document_type"`
}

// GenerateDocument runs Document Generation.
func (o *Orchestrator) GenerateDocument(ctx context.Context, req DocumentGenerationRequest) (*Result, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}
	docType := strings.TrimSpace(req.DocumentType)
	if docType == "" {
		return nil, invalid("document_type", "is required")
	}

	return o.execute(ctx, req.RequestID, projectID, projectID, artifact.StageDocumentGeneration, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		doc, err := o.d.Pipeline.GenerateDocument(ctx, tr, pipeline.DocumentRequest{ProjectID: projectID, DocumentType: docType})
		if err != nil {
			return outcome{}, err
		}
		return outcome{doc.ID, DocumentSummary(doc), doc.IsFallback}, nil
	})
}

// CodeGenerationRequest asks for source code implementing a document.
type CodeGenerationRequest struct {
	RequestID  string `json:"request_id,omitempty"`
	DocumentID string `json:"document_id"`
	Language   string `json:"language"`
}

// GenerateCode runs Code Generation.
func (o *Orchestrator) GenerateCode(ctx context.Context, req CodeGenerationRequest) (*Result, error) {
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		return nil, invalid("document_id", "is required")
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		return nil, invalid("language", "is required")
	}

	return o.execute(ctx, req.RequestID, "", "document:"+documentID, artifact.StageCodeGeneration, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		code, err := o.d.Pipeline.GenerateCode(ctx, tr, pipeline.CodeRequest{DocumentID: documentID, Language: language})
		if err != nil {
			return outcome{}, err
		}
		return outcome{code.ID, CodeSummary(code), code.IsFallback}, nil
	})
}

// ConsistencyCheckRequest names the documents to cross-check.
type ConsistencyCheckRequest struct {
	RequestID   string   `json:"request_id,omitempty"`
	DocumentIDs []string `json:"document_ids"`
}

// CheckConsistency runs Consistency Check.
func (o *Orchestrator) CheckConsistency(ctx context.Context, req ConsistencyCheckRequest) (*Result, error) {
	var ids []string
	for _, id := range req.DocumentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, invalid("document_ids", "at least one document id is required")
	}
	scope := append([]string(nil), ids...)
	sort.Strings(scope)

	return o.execute(ctx, req.RequestID, "", "documents:"+strings.Join(scope, ","), artifact.StageConsistencyCheck, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		review, err := o.d.Pipeline.CheckConsistency(ctx, tr, pipeline.ConsistencyRequest{DocumentIDs: ids})
		if err != nil {
			return outcome{}, err
		}
		return outcome{review.ID, ReviewSummary(review), review.IsFallback}, nil
	})
}

// QualityCheckRequest selects the artifact families to rate. Items accept
// the canonical keys and the Japanese UI labels.
type QualityCheckRequest struct {
	RequestID string   `json:"request_id,omitempty"`
	ProjectID string   `json:"project_id"`
	Items     []string `json:"items"`
}

// CheckQuality runs Quality Check.
func (o *Orchestrator) CheckQuality(ctx context.Context, req QualityCheckRequest) (*Result, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}
	if len(req.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	items := make([]artifact.QualityItem, 0, len(req.Items))
	for _, raw := range req.Items {
		item, err := artifact.ParseQualityItem(raw)
		if err != nil {
			return nil, invalid("items", "unknown item %q", raw)
		}
		items = append(items, item)
	}

	return o.execute(ctx, req.RequestID, projectID, projectID, artifact.StageQualityCheck, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		review, err := o.d.Pipeline.CheckQuality(ctx, tr, pipeline.QualityRequest{ProjectID: projectID, Items: items})
		if err != nil {
			return outcome{}, err
		}
		return outcome{review.ID, ReviewSummary(review), review.IsFallback}, nil
	})
}

// WorkEstimationRequest asks for a work estimate.
type WorkEstimationRequest struct {
	RequestID string `json:"request_id,omitempty"`
	ProjectID string `json:"project_id"`
}

// EstimateWork runs Work Estimation.
func (o *Orchestrator) EstimateWork(ctx context.Context, req WorkEstimationRequest) (*Result, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}

	return o.execute(ctx, req.RequestID, projectID, projectID, artifact.StageWorkEstimation, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		est, err := o.d.Pipeline.EstimateWork(ctx, tr, pipeline.EstimateRequest{ProjectID: projectID})
		if err != nil {
			return outcome{}, err
		}
		return outcome{est.ID, EstimateSummary(est.Estimate), est.IsFallback}, nil
	})
}

// ProgressReportRequest asks for a progress report. Dates are YYYY-MM-DD or
// RFC 3339; a date-only end covers the whole day.
type ProgressReportRequest struct {
	RequestID string `json:"request_id,omitempty"`
	ProjectID string `json:"project_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReportProgress runs Progress Report.
func (o *Orchestrator) ReportProgress(ctx context.Context, req ProgressReportRequest) (*Result, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}
	start, _, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, invalid("start_date", "must be YYYY-MM-DD or RFC 3339")
	}
	end, dateOnly, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, invalid("end_date", "must be YYYY-MM-DD or RFC 3339")
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	if start.After(end) {
		return nil, invalid("start_date", "must not be after end_date")
	}

	return o.execute(ctx, req.RequestID, projectID, projectID, artifact.StageProgressReport, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		report, err := o.d.Pipeline.ReportProgress(ctx, tr, pipeline.ProgressRequest{
			ProjectID: projectID,
			Period:    artifact.Period{Start: start, End: end},
		})
		if err != nil {
			return outcome{}, err
		}
		return outcome{report.ID, ProgressSummary(report.Report), report.IsFallback}, nil
	})
}

// ProposalCreationRequest asks for a proposal laid out per a catalog template.
type ProposalCreationRequest struct {
	RequestID  string `json:"request_id,omitempty"`
	ProjectID  string `json:"project_id"`
	TemplateID string `json:"template_id"`
}

// CreateProposal runs Proposal Creation.
func (o *Orchestrator) CreateProposal(ctx context.Context, req ProposalCreationRequest) (*Result, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}
	templateID := strings.TrimSpace(req.TemplateID)
	if templateID == "" {
		return nil, invalid("template_id", "is required")
	}
	tmpl, ok := pipeline.LookupTemplate(templateID)
	if !ok {
		return nil, invalid("template_id", "unknown template %q", templateID)
	}

	return o.execute(ctx, req.RequestID, projectID, projectID, artifact.StageProposalCreation, func(ctx context.Context, tr *run.Tracker) (outcome, error) {
		proposal, err := o.d.Pipeline.CreateProposal(ctx, tr, pipeline.ProposalRequest{ProjectID: projectID, TemplateID: templateID})
		if err != nil {
			return outcome{}, err
		}
		return outcome{proposal.ID, ProposalSummary(tmpl), proposal.IsFallback}, nil
	})
}

// ParseDate accepts YYYY-MM-DD (reported as date-only) or RFC 3339.
func ParseDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
