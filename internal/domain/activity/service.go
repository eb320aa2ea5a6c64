package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity validates and logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || strings.TrimSpace(entry.ProjectID) == "" || strings.TrimSpace(entry.Task) == "" {
		return ErrInvalidInput
	}
	phase, err := ParsePhase(entry.Phase)
	if err != nil {
		return err
	}
	status, err := ParseStatus(string(entry.Status))
	if err != nil {
		return err
	}
	entry.Phase = phase
	entry.Status = status
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, opts)
}

// TaskCounts tallies logged and completed tasks per phase within [from, to].
func (s *Service) TaskCounts(ctx context.Context, projectID string, from, to time.Time) (map[string]artifact.TaskCount, error) {
	entries, err := s.repo.List(ctx, ListActivityOptions{
		ProjectID: projectID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return Tally(entries), nil
}

// Tally counts entries per phase. Entries with unknown phases are ignored.
func Tally(entries []ActivityEntry) map[string]artifact.TaskCount {
	counts := make(map[string]artifact.TaskCount, len(artifact.ProgressPhases))
	for _, e := range entries {
		phase, err := ParsePhase(e.Phase)
		if err != nil {
			continue
		}
		c := counts[phase]
		c.Total++
		if e.Status == StatusDone {
			c.Completed++
		}
		counts[phase] = c
	}
	return counts
}
