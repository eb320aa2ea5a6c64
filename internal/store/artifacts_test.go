package store

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSourceCodeRepository(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewSourceCodeRepository(db)
	ctx := context.Background()

	code := &artifact.SourceCode{
		ID:         "c1",
		ProjectID:  "p1",
		DocumentID: "deleted-doc",
		FileName:   "generated_code.go",
		Content:    "package main",
		Language:   "go",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, code))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "deleted-doc", got.DocumentID)

	list, err := repo.List(ctx, "p1", repository.ListOptions{Types: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = repo.List(ctx, "p1", repository.ListOptions{Types: []string{"python"}})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestReviewRepository(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewReviewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	consistency := &artifact.Review{
		ID:        "r1",
		ProjectID: "p1",
		Kind:      artifact.ReviewConsistency,
		Type:      "consistency",
		Consistency: &artifact.ConsistencyResult{
			Score:       80,
			Issues:      []artifact.Issue{{Type: "terminology", Description: "mismatch", Severity: artifact.SeverityLow}},
			Suggestions: []string{"align terms"},
		},
		CreatedAt: base,
	}
	quality := &artifact.Review{
		ID:        "r2",
		ProjectID: "p1",
		Kind:      artifact.ReviewQuality,
		Type:      "quality",
		Quality: &artifact.QualityResult{Items: []artifact.QualityScore{
			{Item: artifact.QualityItemDocument, Score: 84, Result: "ok"},
		}},
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, consistency))
	require.NoError(t, repo.Create(ctx, quality))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, consistency.Consistency, got.Consistency)
	require.Nil(t, got.Quality)

	list, err := repo.List(ctx, "p1", artifact.ReviewQuality, repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 84, list[0].Quality.Items[0].Score)

	both, err := repo.List(ctx, "p1", "", repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, both, 2)
	require.Equal(t, "r2", both[0].ID)

	err = repo.Create(ctx, &artifact.Review{ID: "bad", ProjectID: "p1", Kind: artifact.ReviewQuality})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestEstimateRepository(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewEstimateRepository(db)
	ctx := context.Background()

	est, err := artifact.NewEstimate([]artifact.PhaseHours{
		{Phase: "requirements", Hours: 10},
		{Phase: "implementation", Hours: 30},
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	we := &artifact.WorkEstimate{ID: "e1", ProjectID: "p1", Estimate: est, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, we))

	got, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 40.0, got.Estimate.TotalHours)

	adjusted, err := got.Estimate.Adjust([]artifact.PhaseHours{{Phase: "test", Hours: 5}})
	require.NoError(t, err)
	got.Estimate = adjusted
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 45.0, again.Estimate.TotalHours)
	require.True(t, again.UpdatedAt.After(again.CreatedAt))

	list, err := repo.List(ctx, "p1", repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = repo.Update(ctx, &artifact.WorkEstimate{ID: "missing", Estimate: est})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProgressReportRepository(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewProgressReportRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	report := &artifact.ProgressReport{
		ID:        "pr1",
		ProjectID: "p1",
		Report: artifact.Report{
			OverallProgress: 35,
			Phases:          []artifact.PhaseProgress{{Name: "requirements", Progress: 100, Status: artifact.StatusCompleted}},
			Issues:          []string{"a", "b", "c"},
			GeneratedAt:     now,
		},
		CreatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, report))

	got, err := repo.Get(ctx, "pr1")
	require.NoError(t, err)
	require.Equal(t, 35, got.Report.OverallProgress)
	require.Len(t, got.Report.Issues, 3)

	list, err := repo.List(ctx, "p1", repository.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestProposalRepository(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewProposalRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &artifact.Proposal{
		ID:         "pp1",
		ProjectID:  "p1",
		TemplateID: "1",
		Content:    "proposal body",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, "pp1")
	require.NoError(t, err)
	require.Nil(t, got.PDFURL)

	require.NoError(t, repo.SetPDFURL(ctx, "pp1", "proposals/pp1.pdf"))
	got, err = repo.Get(ctx, "pp1")
	require.NoError(t, err)
	require.NotNil(t, got.PDFURL)
	require.Equal(t, "proposals/pp1.pdf", *got.PDFURL)

	require.ErrorIs(t, repo.SetPDFURL(ctx, "missing", "x"), repository.ErrNotFound)

	list, err := repo.List(ctx, "p1", repository.ListOptions{Types: []string{"2"}})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRunRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewRunRepository(db)
	ctx := context.Background()

	started := time.Now().UTC().Add(-time.Second)
	finished := time.Now().UTC()
	rn := &run.Run{
		ID:         "req-1",
		ProjectID:  "p1",
		Stage:      string(artifact.StageWorkEstimation),
		State:      run.StateDone,
		Provider:   "primary",
		ArtifactID: "e1",
		IsFallback: true,
		StartedAt:  started,
		FinishedAt: &finished,
	}
	require.NoError(t, repo.Create(ctx, rn))

	got, err := repo.Get(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, run.StateDone, got.State)
	require.True(t, got.IsFallback)
	require.NotNil(t, got.FinishedAt)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
