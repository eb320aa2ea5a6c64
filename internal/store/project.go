package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/repository"
)

// ProjectRepository implements project.Repository
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.exec(ctx, "project_create", query,
		proj.ID,
		proj.Name,
		proj.Description,
		proj.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", classify(err))
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, name, description, created_at
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	err := r.db.queryRow(ctx, "project_get", query, id).Scan(
		&proj.ID,
		&proj.Name,
		&proj.Description,
		&proj.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}

// List returns all projects with artifact counts, newest first
func (r *ProjectRepository) List(ctx context.Context) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.description,
			p.created_at,
			(SELECT COUNT(*) FROM documents d WHERE d.project_id = p.id) AS document_count,
			(SELECT COUNT(*) FROM source_codes s WHERE s.project_id = p.id) AS source_code_count
		FROM projects p
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.query(ctx, "project_list", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var summary project.ProjectSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Description,
			&summary.CreatedAt,
			&summary.DocumentCount,
			&summary.SourceCodeCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}
