package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/repository"
)

// ProposalRepository implements repository.ProposalRepository
type ProposalRepository struct {
	db *DB
}

// NewProposalRepository creates a new ProposalRepository
func NewProposalRepository(db *DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, project_id, template_id, content, pdf_url, is_fallback, created_at, updated_at`

// Create inserts a proposal
func (r *ProposalRepository) Create(ctx context.Context, p *artifact.Proposal) error {
	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var pdfURL sql.NullString
	if p.PDFURL != nil {
		pdfURL = sql.NullString{String: *p.PDFURL, Valid: true}
	}

	_, err := r.db.exec(ctx, "proposal_create", query,
		p.ID,
		p.ProjectID,
		p.TemplateID,
		p.Content,
		pdfURL,
		p.IsFallback,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", classify(err))
	}
	return nil
}

// Get retrieves a proposal by ID
func (r *ProposalRepository) Get(ctx context.Context, id string) (*artifact.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = ?`

	p, err := scanProposal(r.db.queryRow(ctx, "proposal_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

// List returns a project's proposals, newest first. Types filters by template ID.
func (r *ProposalRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE project_id = ?`
	args := []any{projectID}

	query, args = withTypes(query, "template_id", args, opts.Types)
	query += " ORDER BY created_at DESC"
	query, args = r.db.paging(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "proposal_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []artifact.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}
	return proposals, nil
}

// SetPDFURL records where the rendered PDF lives
func (r *ProposalRepository) SetPDFURL(ctx context.Context, id, url string) error {
	query := `UPDATE proposals SET pdf_url = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.exec(ctx, "proposal_set_pdf", query, url, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set proposal pdf url: %w", err)
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

func scanProposal(s scanner) (*artifact.Proposal, error) {
	var (
		p      artifact.Proposal
		pdfURL sql.NullString
	)
	if err := s.Scan(
		&p.ID,
		&p.ProjectID,
		&p.TemplateID,
		&p.Content,
		&pdfURL,
		&p.IsFallback,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if pdfURL.Valid {
		url := pdfURL.String
		p.PDFURL = &url
	}
	return &p, nil
}
