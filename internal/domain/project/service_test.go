package project_test

import (
	"context"
	"testing"

	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/ganot/forgeline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*project.Project")).Return(nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Create(ctx, project.CreateRequest{Name: "  Billing revamp ", Description: "phase 2"})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, "Billing revamp", proj.Name)
	require.False(t, proj.CreatedAt.IsZero())
}

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)
	_, err := svc.Create(ctx, project.CreateRequest{Name: " "})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, nil)
	_, err := svc.Create(ctx, project.CreateRequest{ID: "p1", Name: "dup"})
	require.ErrorIs(t, err, project.ErrProjectExists)
}

func TestProjectService_GetNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "missing").Return((*project.Project)(nil), repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}
