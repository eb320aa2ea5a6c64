package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
)

// ActivityRepository implements activity.Repository
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry and assigns its ID
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_logs (project_id, phase, status, task, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.queryRow(ctx, "activity_log", query,
		entry.ProjectID,
		entry.Phase,
		string(entry.Status),
		entry.Task,
		entry.CreatedAt.UTC(),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", classify(err))
	}

	return nil
}

// List retrieves activity entries for a project, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT id, project_id, phase, status, task, created_at
		FROM activity_logs
		WHERE project_id = ?
	`
	args := []any{opts.ProjectID}

	if opts.Phase != nil {
		query += " AND phase = ?"
		args = append(args, *opts.Phase)
	}
	if opts.From != nil {
		query += " AND created_at >= ?"
		args = append(args, opts.From.UTC())
	}
	if opts.To != nil {
		query += " AND created_at <= ?"
		args = append(args, opts.To.UTC())
	}

	query += " ORDER BY created_at DESC, id DESC"
	query, args = r.db.paging(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "activity_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var entry activity.ActivityEntry
		var status string
		if err := rows.Scan(
			&entry.ID,
			&entry.ProjectID,
			&entry.Phase,
			&status,
			&entry.Task,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entry.Status = activity.Status(status)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}
