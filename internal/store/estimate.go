package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/repository"
)

// EstimateRepository implements repository.EstimateRepository
type EstimateRepository struct {
	db *DB
}

// NewEstimateRepository creates a new EstimateRepository
func NewEstimateRepository(db *DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

const estimateColumns = `id, project_id, estimate, is_fallback, created_at, updated_at`

// Create inserts a work estimate
func (r *EstimateRepository) Create(ctx context.Context, est *artifact.WorkEstimate) error {
	payload, err := json.Marshal(est.Estimate)
	if err != nil {
		return fmt.Errorf("failed to encode estimate: %w", err)
	}

	query := `
		INSERT INTO work_estimates (id, project_id, estimate, total_hours, is_fallback, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.exec(ctx, "estimate_create", query,
		est.ID,
		est.ProjectID,
		string(payload),
		est.Estimate.TotalHours,
		est.IsFallback,
		est.CreatedAt.UTC(),
		est.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create estimate: %w", classify(err))
	}
	return nil
}

// Get retrieves an estimate by ID
func (r *EstimateRepository) Get(ctx context.Context, id string) (*artifact.WorkEstimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM work_estimates WHERE id = ?`

	est, err := scanEstimate(r.db.queryRow(ctx, "estimate_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return est, nil
}

// List returns a project's estimates, newest first
func (r *EstimateRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.WorkEstimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM work_estimates WHERE project_id = ? ORDER BY created_at DESC`
	query, args := r.db.paging(query, []any{projectID}, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "estimate_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var estimates []artifact.WorkEstimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, *est)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimate rows: %w", err)
	}
	return estimates, nil
}

// Update replaces the estimate payload and bumps updated_at
func (r *EstimateRepository) Update(ctx context.Context, est *artifact.WorkEstimate) error {
	payload, err := json.Marshal(est.Estimate)
	if err != nil {
		return fmt.Errorf("failed to encode estimate: %w", err)
	}

	query := `
		UPDATE work_estimates
		SET estimate = ?, total_hours = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.exec(ctx, "estimate_update", query,
		string(payload),
		est.Estimate.TotalHours,
		est.UpdatedAt.UTC(),
		est.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update estimate: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanEstimate(s scanner) (*artifact.WorkEstimate, error) {
	var (
		est     artifact.WorkEstimate
		payload string
	)
	if err := s.Scan(
		&est.ID,
		&est.ProjectID,
		&payload,
		&est.IsFallback,
		&est.CreatedAt,
		&est.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &est.Estimate); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}
	return &est, nil
}
