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

// ProgressReportRepository implements repository.ProgressReportRepository
type ProgressReportRepository struct {
	db *DB
}

// NewProgressReportRepository creates a new ProgressReportRepository
func NewProgressReportRepository(db *DB) *ProgressReportRepository {
	return &ProgressReportRepository{db: db}
}

const progressColumns = `id, project_id, report, is_fallback, created_at`

// Create inserts a progress report
func (r *ProgressReportRepository) Create(ctx context.Context, report *artifact.ProgressReport) error {
	payload, err := json.Marshal(report.Report)
	if err != nil {
		return fmt.Errorf("failed to encode progress report: %w", err)
	}

	query := `
		INSERT INTO progress_reports (id, project_id, report, overall_progress, is_fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.exec(ctx, "progress_report_create", query,
		report.ID,
		report.ProjectID,
		string(payload),
		report.Report.OverallProgress,
		report.IsFallback,
		report.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create progress report: %w", classify(err))
	}
	return nil
}

// Get retrieves a progress report by ID
func (r *ProgressReportRepository) Get(ctx context.Context, id string) (*artifact.ProgressReport, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_reports WHERE id = ?`

	report, err := scanProgressReport(r.db.queryRow(ctx, "progress_report_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress report: %w", err)
	}
	return report, nil
}

// List returns a project's progress reports, newest first
func (r *ProgressReportRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.ProgressReport, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_reports WHERE project_id = ? ORDER BY created_at DESC`
	query, args := r.db.paging(query, []any{projectID}, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "progress_report_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress reports: %w", err)
	}
	defer rows.Close()

	var reports []artifact.ProgressReport
	for rows.Next() {
		report, err := scanProgressReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress report rows: %w", err)
	}
	return reports, nil
}

func scanProgressReport(s scanner) (*artifact.ProgressReport, error) {
	var (
		report  artifact.ProgressReport
		payload string
	)
	if err := s.Scan(
		&report.ID,
		&report.ProjectID,
		&payload,
		&report.IsFallback,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &report.Report); err != nil {
		return nil, fmt.Errorf("failed to decode progress report: %w", err)
	}
	return &report, nil
}
