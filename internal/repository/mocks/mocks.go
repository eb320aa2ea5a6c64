package mocks

import (
	"context"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.ProjectSummary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// RunRepository is a mock for run.Repository.
type RunRepository struct {
	mock.Mock
}

func (m *RunRepository) Create(ctx context.Context, r *run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RunRepository) Get(ctx context.Context, id string) (*run.Run, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*run.Run); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// DocumentRepository is a mock for repository.DocumentRepository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, doc *artifact.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *DocumentRepository) Get(ctx context.Context, id string) (*artifact.Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*artifact.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) GetMany(ctx context.Context, ids []string) ([]artifact.Document, error) {
	args := m.Called(ctx, ids)
	if docs, ok := args.Get(0).([]artifact.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Document, error) {
	args := m.Called(ctx, projectID, opts)
	if docs, ok := args.Get(0).([]artifact.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Latest(ctx context.Context, projectID, docType string) (*artifact.Document, error) {
	args := m.Called(ctx, projectID, docType)
	if doc, ok := args.Get(0).(*artifact.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Search(ctx context.Context, projectID, query string, opts repository.ListOptions) ([]artifact.Document, error) {
	args := m.Called(ctx, projectID, query, opts)
	if docs, ok := args.Get(0).([]artifact.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

// SourceCodeRepository is a mock for repository.SourceCodeRepository.
type SourceCodeRepository struct {
	mock.Mock
}

func (m *SourceCodeRepository) Create(ctx context.Context, code *artifact.SourceCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *SourceCodeRepository) Get(ctx context.Context, id string) (*artifact.SourceCode, error) {
	args := m.Called(ctx, id)
	if code, ok := args.Get(0).(*artifact.SourceCode); ok {
		return code, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SourceCodeRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.SourceCode, error) {
	args := m.Called(ctx, projectID, opts)
	if list, ok := args.Get(0).([]artifact.SourceCode); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReviewRepository is a mock for repository.ReviewRepository.
type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) Create(ctx context.Context, review *artifact.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *ReviewRepository) Get(ctx context.Context, id string) (*artifact.Review, error) {
	args := m.Called(ctx, id)
	if review, ok := args.Get(0).(*artifact.Review); ok {
		return review, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReviewRepository) List(ctx context.Context, projectID string, kind artifact.ReviewKind, opts repository.ListOptions) ([]artifact.Review, error) {
	args := m.Called(ctx, projectID, kind, opts)
	if list, ok := args.Get(0).([]artifact.Review); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// EstimateRepository is a mock for repository.EstimateRepository.
type EstimateRepository struct {
	mock.Mock
}

func (m *EstimateRepository) Create(ctx context.Context, est *artifact.WorkEstimate) error {
	args := m.Called(ctx, est)
	return args.Error(0)
}

func (m *EstimateRepository) Get(ctx context.Context, id string) (*artifact.WorkEstimate, error) {
	args := m.Called(ctx, id)
	if est, ok := args.Get(0).(*artifact.WorkEstimate); ok {
		return est, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EstimateRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.WorkEstimate, error) {
	args := m.Called(ctx, projectID, opts)
	if list, ok := args.Get(0).([]artifact.WorkEstimate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EstimateRepository) Update(ctx context.Context, est *artifact.WorkEstimate) error {
	args := m.Called(ctx, est)
	return args.Error(0)
}

// ProgressReportRepository is a mock for repository.ProgressReportRepository.
type ProgressReportRepository struct {
	mock.Mock
}

func (m *ProgressReportRepository) Create(ctx context.Context, report *artifact.ProgressReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *ProgressReportRepository) Get(ctx context.Context, id string) (*artifact.ProgressReport, error) {
	args := m.Called(ctx, id)
	if report, ok := args.Get(0).(*artifact.ProgressReport); ok {
		return report, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProgressReportRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.ProgressReport, error) {
	args := m.Called(ctx, projectID, opts)
	if list, ok := args.Get(0).([]artifact.ProgressReport); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProposalRepository is a mock for repository.ProposalRepository.
type ProposalRepository struct {
	mock.Mock
}

func (m *ProposalRepository) Create(ctx context.Context, p *artifact.Proposal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProposalRepository) Get(ctx context.Context, id string) (*artifact.Proposal, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*artifact.Proposal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProposalRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Proposal, error) {
	args := m.Called(ctx, projectID, opts)
	if list, ok := args.Get(0).([]artifact.Proposal); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProposalRepository) SetPDFURL(ctx context.Context, id, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}
