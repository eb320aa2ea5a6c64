package run_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/ganot/forgeline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to run.State
		ok       bool
	}{
		{run.StatePending, run.StateFetchingInputs, true},
		{run.StateFetchingInputs, run.StatePrompting, true},
		{run.StateFetchingInputs, run.StateFailed, true},
		{run.StatePrompting, run.StateGenerating, true},
		{run.StateGenerating, run.StateValidating, true},
		{run.StateValidating, run.StatePersisting, true},
		{run.StatePersisting, run.StateDone, true},
		{run.StatePersisting, run.StateFailed, true},
		{run.StateGenerating, run.StateFailed, false},
		{run.StateValidating, run.StateFailed, false},
		{run.StatePending, run.StateDone, false},
		{run.StateDone, run.StatePending, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTracker_HappyPath(t *testing.T) {
	var seen []run.State
	tr := run.NewTracker(run.Run{ID: "req-1", Stage: "document_generation"}, func(r run.Run) {
		seen = append(seen, r.State)
	})

	for _, s := range []run.State{
		run.StateFetchingInputs, run.StatePrompting, run.StateGenerating,
		run.StateValidating, run.StatePersisting,
	} {
		require.NoError(t, tr.Advance(s))
	}
	tr.SetResult("doc-1", true)
	require.NoError(t, tr.Advance(run.StateDone))

	snap := tr.Snapshot()
	require.Equal(t, run.StateDone, snap.State)
	require.Equal(t, "doc-1", snap.ArtifactID)
	require.True(t, snap.IsFallback)
	require.NotNil(t, snap.FinishedAt)
	require.Len(t, seen, 6)
}

func TestTracker_RejectsInvalidTransition(t *testing.T) {
	tr := run.NewTracker(run.Run{ID: "req-1"}, nil)
	require.NoError(t, tr.Advance(run.StateFetchingInputs))
	require.NoError(t, tr.Advance(run.StatePrompting))

	err := tr.Fail(errors.New("boom"))
	require.ErrorIs(t, err, run.ErrInvalidTransition)
	require.Equal(t, run.StatePrompting, tr.Snapshot().State)
}

func TestTracker_Nil(t *testing.T) {
	var tr *run.Tracker
	require.NoError(t, tr.Advance(run.StateDone))
	tr.SetResult("x", false)
	require.Equal(t, run.Run{}, tr.Snapshot())
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.RunRepository{}
	svc := run.NewService(repo, nil)

	err := svc.Record(ctx, run.Run{ID: "r1", State: run.StateGenerating})
	require.Error(t, err)

	repo.On("Create", ctx, mock.MatchedBy(func(r *run.Run) bool { return r.ID == "r1" })).Return(nil)
	require.NoError(t, svc.Record(ctx, run.Run{ID: "r1", State: run.StateDone}))
	repo.AssertExpectations(t)
}

func TestService_GetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.RunRepository{}
	repo.On("Get", ctx, "missing").Return((*run.Run)(nil), repository.ErrNotFound)

	svc := run.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, run.ErrRunNotFound)
}
