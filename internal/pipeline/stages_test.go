package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/llm/llmtest"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/ganot/forgeline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateDocument(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "# Requirements\n\nThe system tracks stock levels."))
	h.seedProject(t, "p1")
	h.seedDocument(t, "up1", "p1", artifact.DocTypeUploadedFile, "Warehouse interview notes")
	tr := newTracker()

	doc, err := h.pipe.GenerateDocument(context.Background(), tr, pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "requirements"})
	require.NoError(t, err)
	require.False(t, doc.IsFallback)
	require.Equal(t, "requirements", doc.Type)
	require.Contains(t, doc.Content.Text, "tracks stock levels")

	stored, err := h.stores.Documents.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.Content, stored.Content)

	snap := tr.Snapshot()
	require.Equal(t, run.StateDone, snap.State)
	require.Equal(t, doc.ID, snap.ArtifactID)
	require.Equal(t, "primary", snap.Provider)

	calls := h.provider.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].User, "Warehouse interview notes")
}

func TestGenerateDocument_RepeatedRunsStoreSeparateDocuments(t *testing.T) {
	h := newHarness(t, &llmtest.Provider{ProviderName: "primary", Default: "# Requirements\n\nPallets are scanned at every dock."})
	h.seedProject(t, "p1")
	h.seedDocument(t, "up1", "p1", artifact.DocTypeUploadedFile, "Dock notes")

	req := pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "requirements"}
	first, err := h.pipe.GenerateDocument(context.Background(), newTracker(), req)
	require.NoError(t, err)
	second, err := h.pipe.GenerateDocument(context.Background(), newTracker(), req)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.Content, second.Content)
	require.False(t, first.IsFallback)
	require.False(t, second.IsFallback)

	docs, err := h.stores.Documents.List(context.Background(), "p1", repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, 2, h.provider.CallCount())
}

func TestGenerateDocument_FallbackOnProviderFailure(t *testing.T) {
	h := newHarness(t, unavailable())
	h.seedProject(t, "p1")
	h.seedDocument(t, "up1", "p1", artifact.DocTypeUploadedFile, "notes")
	tr := newTracker()

	doc, err := h.pipe.GenerateDocument(context.Background(), tr, pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "design"})
	require.NoError(t, err)
	require.True(t, doc.IsFallback)
	require.True(t, strings.HasPrefix(doc.Content.Text, "Sample design:"))

	stored, err := h.stores.Documents.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	require.True(t, stored.IsFallback)
	require.True(t, tr.Snapshot().IsFallback)
}

func TestGenerateDocument_Preconditions(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "unused"))
	h.seedProject(t, "p1")

	tr := newTracker()
	_, err := h.pipe.GenerateDocument(context.Background(), tr, pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "design"})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
	require.Equal(t, run.StateFailed, tr.Snapshot().State)

	_, err = h.pipe.GenerateDocument(context.Background(), newTracker(), pipeline.DocumentRequest{ProjectID: "missing", DocumentType: "design"})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)

	docs, err := h.stores.Documents.List(context.Background(), "p1", repository.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, docs)
	require.Zero(t, h.provider.CallCount())
}

func TestGenerateDocument_StorageFailure(t *testing.T) {
	docs := &mocks.DocumentRepository{}
	docs.On("Latest", mock.Anything, "p1", artifact.DocTypeUploadedFile).
		Return(&artifact.Document{ID: "up1", ProjectID: "p1", Content: artifact.Content{Text: "notes"}}, nil)
	docs.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	h := newHarness(t, llmtest.New("primary", "text"), func(_ *pipeline.Options, s *pipeline.Stores) {
		s.Documents = docs
	})
	h.seedProject(t, "p1")
	tr := newTracker()

	_, err := h.pipe.GenerateDocument(context.Background(), tr, pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "design"})
	require.ErrorIs(t, err, pipeline.ErrStorage)
	require.Equal(t, run.StateFailed, tr.Snapshot().State)
	docs.AssertExpectations(t)
}

func TestPersist_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &llmtest.Provider{ProviderName: "primary", Respond: func(_, _ string) (string, error) {
		cancel()
		return "generated after cancel", nil
	}}
	h := newHarness(t, provider)
	h.seedProject(t, "p1")
	h.seedDocument(t, "up1", "p1", artifact.DocTypeUploadedFile, "notes")

	doc, err := h.pipe.GenerateDocument(ctx, newTracker(), pipeline.DocumentRequest{ProjectID: "p1", DocumentType: "design"})
	require.NoError(t, err)

	_, err = h.stores.Documents.Get(context.Background(), doc.ID)
	require.NoError(t, err)
}

func TestGenerateCode(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "```python\nprint('stock')\n```"))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "design", "Stock report")

	tr := newTracker()
	code, err := h.pipe.GenerateCode(context.Background(), tr, pipeline.CodeRequest{DocumentID: "d1", Language: "Python"})
	require.NoError(t, err)
	require.Equal(t, "generated_code.python", code.FileName)
	require.Equal(t, "print('stock')", code.Content)
	require.Equal(t, "p1", code.ProjectID)
	require.Equal(t, "d1", code.DocumentID)
	require.False(t, code.IsFallback)

	snap := tr.Snapshot()
	require.Equal(t, "p1", snap.ProjectID)
	require.Equal(t, code.ID, snap.ArtifactID)

	_, err = h.pipe.GenerateCode(context.Background(), newTracker(), pipeline.CodeRequest{DocumentID: "nope", Language: "go"})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
}

func TestGenerateCode_FallbackOnEmptyCompletion(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "```\n```"))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "design", "Stock report")

	code, err := h.pipe.GenerateCode(context.Background(), newTracker(), pipeline.CodeRequest{DocumentID: "d1", Language: "ruby"})
	require.NoError(t, err)
	require.True(t, code.IsFallback)
	require.True(t, strings.HasPrefix(code.Content, "# Sample ruby code"))
}

func TestCheckConsistency(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", `{"score": 70, "issues": [{"type": "scope", "description": "Design omits returns", "severity": "high"}], "suggestions": ["Add returns flow"]}`))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "Returns are supported")
	h.seedDocument(t, "d2", "p1", "design", "Orders only")

	review, err := h.pipe.CheckConsistency(context.Background(), newTracker(), pipeline.ConsistencyRequest{DocumentIDs: []string{"d1", "d2", "d1"}})
	require.NoError(t, err)
	require.Equal(t, artifact.ReviewConsistency, review.Kind)
	require.Equal(t, "p1", review.ProjectID)
	require.Equal(t, 70, review.Consistency.Score)
	require.Equal(t, artifact.SeverityHigh, review.Consistency.Issues[0].Severity)

	stored, err := h.stores.Reviews.Get(context.Background(), review.ID)
	require.NoError(t, err)
	require.Equal(t, review.Consistency, stored.Consistency)
}

func TestCheckConsistency_Preconditions(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "unused"))
	h.seedProject(t, "p1")
	h.seedProject(t, "p2")
	h.seedDocument(t, "d1", "p1", "requirements", "a")
	h.seedDocument(t, "d2", "p2", "design", "b")

	_, err := h.pipe.CheckConsistency(context.Background(), newTracker(), pipeline.ConsistencyRequest{DocumentIDs: []string{"d1", "ghost"}})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
	require.Contains(t, err.Error(), "ghost")

	_, err = h.pipe.CheckConsistency(context.Background(), newTracker(), pipeline.ConsistencyRequest{DocumentIDs: []string{"d1", "d2"}})
	require.ErrorIs(t, err, pipeline.ErrMixedProjects)

	_, err = h.pipe.CheckConsistency(context.Background(), newTracker(), pipeline.ConsistencyRequest{})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
	require.Zero(t, h.provider.CallCount())
}

func TestCheckConsistency_FallbackOnMalformedOutput(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "The documents look consistent."))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "a")

	review, err := h.pipe.CheckConsistency(context.Background(), newTracker(), pipeline.ConsistencyRequest{DocumentIDs: []string{"d1"}})
	require.NoError(t, err)
	require.True(t, review.IsFallback)
	require.Equal(t, 0, review.Consistency.Score)
	require.Len(t, review.Consistency.Issues, 1)
}

func qualityResponder(code string) func(system, user string) (string, error) {
	return func(_, user string) (string, error) {
		if strings.Contains(user, "following source code") {
			return code, nil
		}
		return `{"rating": 50, "result": "Documents are mostly complete."}`, nil
	}
}

func TestCheckQuality(t *testing.T) {
	provider := &llmtest.Provider{ProviderName: "primary", Respond: qualityResponder(`{"rating": 100, "result": "Clean code."}`)}
	h := newHarness(t, provider)
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "a")
	require.NoError(t, h.stores.SourceCodes.Create(context.Background(), &artifact.SourceCode{
		ID: "c1", ProjectID: "p1", DocumentID: "d1", FileName: "generated_code.go", Content: "package main", Language: "go", CreatedAt: testNow,
	}))

	review, err := h.pipe.CheckQuality(context.Background(), newTracker(), pipeline.QualityRequest{
		ProjectID: "p1",
		Items:     []artifact.QualityItem{artifact.QualityItemDocument, artifact.QualityItemSourceCode, artifact.QualityItemDocument},
	})
	require.NoError(t, err)
	require.False(t, review.IsFallback)
	require.Equal(t, artifact.ReviewQuality, review.Kind)
	require.Equal(t, "document, source_code", review.Type)
	require.Len(t, review.Quality.Items, 2)
	require.Equal(t, 80, review.Quality.Items[0].Score)
	require.Equal(t, artifact.QualityItemSourceCode, review.Quality.Items[1].Item)
	require.Equal(t, 100, review.Quality.Items[1].Score)
	require.Equal(t, 2, provider.CallCount())
}

func TestCheckQuality_PartialFallback(t *testing.T) {
	provider := &llmtest.Provider{ProviderName: "primary", Respond: qualityResponder("no json here")}
	h := newHarness(t, provider)
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "a")
	require.NoError(t, h.stores.SourceCodes.Create(context.Background(), &artifact.SourceCode{
		ID: "c1", ProjectID: "p1", FileName: "generated_code.go", Content: "package main", Language: "go", CreatedAt: testNow,
	}))

	review, err := h.pipe.CheckQuality(context.Background(), newTracker(), pipeline.QualityRequest{
		ProjectID: "p1",
		Items:     []artifact.QualityItem{artifact.QualityItemDocument, artifact.QualityItemSourceCode},
	})
	require.NoError(t, err)
	require.True(t, review.IsFallback)
	require.False(t, review.Quality.Items[0].IsFallback)
	require.True(t, review.Quality.Items[1].IsFallback)
	require.Equal(t, artifact.MinQualityScore, review.Quality.Items[1].Score)
}

func TestCheckQuality_RequiresArtifactsPerItem(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "unused"))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "a")

	_, err := h.pipe.CheckQuality(context.Background(), newTracker(), pipeline.QualityRequest{
		ProjectID: "p1",
		Items:     []artifact.QualityItem{artifact.QualityItemDocument, artifact.QualityItemSourceCode},
	})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
	require.Zero(t, h.provider.CallCount())
}

func TestEstimateWork(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", `{"totalHours": 1, "breakdown": [{"phase": "design", "hours": 80}, {"phase": "implementation", "hours": 200}]}`))
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "a")

	est, err := h.pipe.EstimateWork(context.Background(), newTracker(), pipeline.EstimateRequest{ProjectID: "p1"})
	require.NoError(t, err)
	require.False(t, est.IsFallback)
	require.Equal(t, 280.0, est.Estimate.TotalHours)

	calls := h.provider.Calls()
	require.Contains(t, calls[0].User, `"requirements": 1`)
}

func TestEstimateWork_Fallback(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", `{"totalHours": 10, "breakdown": []}`))
	h.seedProject(t, "p1")

	est, err := h.pipe.EstimateWork(context.Background(), newTracker(), pipeline.EstimateRequest{ProjectID: "p1"})
	require.NoError(t, err)
	require.True(t, est.IsFallback)
	require.Equal(t, 1000.0, est.Estimate.TotalHours)
	require.True(t, est.Estimate.Consistent())
}

func seedActivity(t *testing.T, h *harness, projectID, phase string, total, done int, at time.Time) {
	t.Helper()
	for i := 0; i < total; i++ {
		status := activity.StatusInProgress
		if i < done {
			status = activity.StatusDone
		}
		require.NoError(t, h.stores.Activity.Log(context.Background(), &activity.ActivityEntry{
			ProjectID: projectID, Phase: phase, Status: status, Task: "task", CreatedAt: at,
		}))
	}
}

func TestReportProgress(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "1. Design is behind\n2. Development not started\n3. Tests not planned\n4. ignored"))
	h.seedProject(t, "p1")
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seedActivity(t, h, "p1", artifact.PhaseRequirements, 4, 4, at)
	seedActivity(t, h, "p1", artifact.PhaseDesign, 5, 2, at)
	seedActivity(t, h, "p1", artifact.PhaseTest, 2, 0, at)
	seedActivity(t, h, "p1", artifact.PhaseDevelopment, 3, 3, at.AddDate(0, 1, 0))

	period := artifact.Period{Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}
	report, err := h.pipe.ReportProgress(context.Background(), newTracker(), pipeline.ProgressRequest{ProjectID: "p1", Period: period})
	require.NoError(t, err)
	require.False(t, report.IsFallback)
	require.Equal(t, 35, report.Report.OverallProgress)
	require.Equal(t, []int{100, 40, 0, 0}, []int{
		report.Report.Phases[0].Progress, report.Report.Phases[1].Progress,
		report.Report.Phases[2].Progress, report.Report.Phases[3].Progress,
	})
	require.Equal(t, artifact.StatusNotStarted, report.Report.Phases[2].Status)
	require.Equal(t, []string{"Design is behind", "Development not started", "Tests not planned"}, report.Report.Issues)
	require.Equal(t, period, report.Report.Period)
}

func TestReportProgress_FallbackIssues(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "Only one issue"))
	h.seedProject(t, "p1")

	period := artifact.Period{Start: testNow.AddDate(0, -1, 0), End: testNow}
	report, err := h.pipe.ReportProgress(context.Background(), newTracker(), pipeline.ProgressRequest{ProjectID: "p1", Period: period})
	require.NoError(t, err)
	require.True(t, report.IsFallback)
	require.Len(t, report.Report.Issues, pipeline.IssueCount)
	require.Equal(t, 0, report.Report.OverallProgress)
}

func TestReportProgress_InvalidPeriod(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "unused"))
	h.seedProject(t, "p1")
	tr := newTracker()

	_, err := h.pipe.ReportProgress(context.Background(), tr, pipeline.ProgressRequest{
		ProjectID: "p1",
		Period:    artifact.Period{Start: testNow, End: testNow.AddDate(0, 0, -1)},
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidPeriod)
	require.Equal(t, run.StateFailed, tr.Snapshot().State)
}

func seedProposalInputs(t *testing.T, h *harness) {
	t.Helper()
	h.seedProject(t, "p1")
	h.seedDocument(t, "d1", "p1", "requirements", "Track stock")
	est, err := artifact.NewEstimate([]artifact.PhaseHours{{Phase: "design", Hours: 40}})
	require.NoError(t, err)
	require.NoError(t, h.stores.Estimates.Create(context.Background(), &artifact.WorkEstimate{
		ID: "e1", ProjectID: "p1", Estimate: est, CreatedAt: testNow, UpdatedAt: testNow,
	}))
}

func TestCreateProposal(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "Overview\nAtlas modernizes stock tracking."), func(o *pipeline.Options, _ *pipeline.Stores) {
		o.Renderer = stubRenderer{}
	})
	seedProposalInputs(t, h)

	proposal, err := h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "1"})
	require.NoError(t, err)
	require.False(t, proposal.IsFallback)
	require.NotNil(t, proposal.PDFURL)
	require.Equal(t, pipeline.ProposalKey(proposal.ID), *proposal.PDFURL)

	pdf, err := h.blobs.Get(context.Background(), *proposal.PDFURL)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.3 Atlas Proposal", string(pdf))

	stored, err := h.stores.Proposals.Get(context.Background(), proposal.ID)
	require.NoError(t, err)
	require.Equal(t, proposal.PDFURL, stored.PDFURL)
}

func TestCreateProposal_RenderFailureLeavesNoPDF(t *testing.T) {
	h := newHarness(t, unavailable(), func(o *pipeline.Options, _ *pipeline.Stores) {
		o.Renderer = stubRenderer{err: errors.New("font missing")}
	})
	seedProposalInputs(t, h)

	proposal, err := h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "2"})
	require.NoError(t, err)
	require.True(t, proposal.IsFallback)
	require.Nil(t, proposal.PDFURL)
	require.Contains(t, proposal.Content, "Estimated effort: 40 hours.")
}

func TestCreateProposal_Preconditions(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "unused"))
	h.seedProject(t, "p1")

	_, err := h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "9"})
	require.ErrorIs(t, err, pipeline.ErrUnknownTemplate)

	_, err = h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "1"})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)

	h.seedDocument(t, "d1", "p1", "requirements", "Track stock")
	_, err = h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "1"})
	require.ErrorIs(t, err, pipeline.ErrPrecondition)
	require.Contains(t, err.Error(), "work estimate")
}

func TestCreateProposal_InsertFailureRemovesPDF(t *testing.T) {
	proposals := &mocks.ProposalRepository{}
	proposals.On("Create", mock.Anything, mock.Anything).Return(errors.New("constraint failed"))

	h := newHarness(t, llmtest.New("primary", "Proposal text"), func(o *pipeline.Options, s *pipeline.Stores) {
		o.Renderer = stubRenderer{}
		s.Proposals = proposals
	})
	seedProposalInputs(t, h)

	_, err := h.pipe.CreateProposal(context.Background(), newTracker(), pipeline.ProposalRequest{ProjectID: "p1", TemplateID: "1"})
	require.ErrorIs(t, err, pipeline.ErrStorage)

	created := proposals.Calls[0].Arguments.Get(1).(*artifact.Proposal)
	_, err = h.blobs.Get(context.Background(), pipeline.ProposalKey(created.ID))
	require.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	retry := func(o *pipeline.Options, _ *pipeline.Stores) {
		o.Retry = pipeline.RetryPolicy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	}

	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"unavailable is retried", llm.Unavailable("primary", errors.New("503")), 3},
		{"timeout is retried", llm.Timeout("primary", context.DeadlineExceeded), 3},
		{"rejected is not retried", llm.Rejected("primary", errors.New("400")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, llmtest.Failing("primary", tt.err), retry)
			h.seedProject(t, "p1")

			est, err := h.pipe.EstimateWork(context.Background(), newTracker(), pipeline.EstimateRequest{ProjectID: "p1"})
			require.NoError(t, err)
			require.True(t, est.IsFallback)
			require.Equal(t, tt.wantCalls, h.provider.CallCount())
		})
	}
}

func TestProviderFor(t *testing.T) {
	h := newHarness(t, llmtest.New("primary", "x"), func(o *pipeline.Options, _ *pipeline.Stores) {
		o.Providers = map[artifact.Stage]string{artifact.StageCodeGeneration: "alternate"}
	})
	require.Equal(t, "alternate", h.pipe.ProviderFor(artifact.StageCodeGeneration))
	require.Equal(t, "primary", h.pipe.ProviderFor(artifact.StageDocumentGeneration))
}
