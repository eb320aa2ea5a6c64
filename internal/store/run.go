package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/repository"
)

// RunRepository implements run.Repository
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create records a finished run
func (r *RunRepository) Create(ctx context.Context, rn *run.Run) error {
	query := `
		INSERT INTO generation_runs (
			id, project_id, stage, state, provider, artifact_id,
			is_fallback, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var finished any
	if rn.FinishedAt != nil {
		finished = rn.FinishedAt.UTC()
	}

	_, err := r.db.exec(ctx, "run_create", query,
		rn.ID,
		rn.ProjectID,
		rn.Stage,
		string(rn.State),
		rn.Provider,
		rn.ArtifactID,
		rn.IsFallback,
		rn.Error,
		rn.StartedAt.UTC(),
		finished,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", classify(err))
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*run.Run, error) {
	query := `
		SELECT id, project_id, stage, state, provider, artifact_id,
			is_fallback, error, started_at, finished_at
		FROM generation_runs
		WHERE id = ?
	`

	var (
		rn       run.Run
		state    string
		finished sql.NullTime
	)
	err := r.db.queryRow(ctx, "run_get", query, id).Scan(
		&rn.ID,
		&rn.ProjectID,
		&rn.Stage,
		&state,
		&rn.Provider,
		&rn.ArtifactID,
		&rn.IsFallback,
		&rn.Error,
		&rn.StartedAt,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rn.State = run.State(state)
	if finished.Valid {
		t := finished.Time
		rn.FinishedAt = &t
	}
	return &rn, nil
}
