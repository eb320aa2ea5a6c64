package store

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")
	repo := NewActivityRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []activity.ActivityEntry{
		{ProjectID: "p1", Phase: artifact.PhaseRequirements, Status: activity.StatusDone, Task: "interview", CreatedAt: base},
		{ProjectID: "p1", Phase: artifact.PhaseDesign, Status: activity.StatusInProgress, Task: "schema", CreatedAt: base.Add(24 * time.Hour)},
		{ProjectID: "p1", Phase: artifact.PhaseDesign, Status: activity.StatusTodo, Task: "api", CreatedAt: base.Add(48 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Log(ctx, &entries[i]))
		require.NotZero(t, entries[i].ID)
	}

	all, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "api", all[0].Task)

	design := artifact.PhaseDesign
	filtered, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1", Phase: &design})
	require.NoError(t, err)
	require.Len(t, filtered, 2)

	from := base.Add(12 * time.Hour)
	to := base.Add(36 * time.Hour)
	windowed, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1", From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	require.Equal(t, "schema", windowed[0].Task)

	paged, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1", Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "interview", paged[0].Task)
}

func TestActivityRepository_UnknownProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)

	err := repo.Log(context.Background(), &activity.ActivityEntry{
		ProjectID: "missing",
		Phase:     artifact.PhaseTest,
		Status:    activity.StatusTodo,
		Task:      "t",
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}
