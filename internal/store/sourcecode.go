package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/repository"
)

// SourceCodeRepository implements repository.SourceCodeRepository
type SourceCodeRepository struct {
	db *DB
}

// NewSourceCodeRepository creates a new SourceCodeRepository
func NewSourceCodeRepository(db *DB) *SourceCodeRepository {
	return &SourceCodeRepository{db: db}
}

const sourceCodeColumns = `id, project_id, document_id, file_name, content, language, is_fallback, created_at`

// Create inserts generated source code
func (r *SourceCodeRepository) Create(ctx context.Context, code *artifact.SourceCode) error {
	query := `
		INSERT INTO source_codes (` + sourceCodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.exec(ctx, "source_code_create", query,
		code.ID,
		code.ProjectID,
		code.DocumentID,
		code.FileName,
		code.Content,
		code.Language,
		code.IsFallback,
		code.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create source code: %w", classify(err))
	}
	return nil
}

// Get retrieves source code by ID
func (r *SourceCodeRepository) Get(ctx context.Context, id string) (*artifact.SourceCode, error) {
	query := `SELECT ` + sourceCodeColumns + ` FROM source_codes WHERE id = ?`

	code, err := scanSourceCode(r.db.queryRow(ctx, "source_code_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source code: %w", err)
	}
	return code, nil
}

// List returns a project's source code, newest first. Types filters by language.
func (r *SourceCodeRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.SourceCode, error) {
	query := `SELECT ` + sourceCodeColumns + ` FROM source_codes WHERE project_id = ?`
	args := []any{projectID}

	query, args = withTypes(query, "language", args, opts.Types)
	query += " ORDER BY created_at DESC"
	query, args = r.db.paging(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "source_code_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list source code: %w", err)
	}
	defer rows.Close()

	var codes []artifact.SourceCode
	for rows.Next() {
		code, err := scanSourceCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source code: %w", err)
		}
		codes = append(codes, *code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source code rows: %w", err)
	}
	return codes, nil
}

func scanSourceCode(s scanner) (*artifact.SourceCode, error) {
	var code artifact.SourceCode
	if err := s.Scan(
		&code.ID,
		&code.ProjectID,
		&code.DocumentID,
		&code.FileName,
		&code.Content,
		&code.Language,
		&code.IsFallback,
		&code.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}
