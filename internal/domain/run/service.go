package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/forgeline/internal/repository"
)

// Service persists and loads generation runs.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new run service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores a finished run.
func (s *Service) Record(ctx context.Context, r Run) error {
	if !r.Terminal() {
		return fmt.Errorf("recording run %s: state %s is not terminal", r.ID, r.State)
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Get fetches a run by its generation-request id.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return r, nil
}
