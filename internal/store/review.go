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

// ReviewRepository implements repository.ReviewRepository over quality_check_results.
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, project_id, kind, type, result, is_fallback, created_at`

// Create inserts a review. The result column holds the payload matching Kind.
func (r *ReviewRepository) Create(ctx context.Context, review *artifact.Review) error {
	var payload any
	switch review.Kind {
	case artifact.ReviewConsistency:
		if review.Consistency == nil {
			return fmt.Errorf("%w: consistency review without result", repository.ErrInvalidInput)
		}
		payload = review.Consistency
	case artifact.ReviewQuality:
		if review.Quality == nil {
			return fmt.Errorf("%w: quality review without result", repository.ErrInvalidInput)
		}
		payload = review.Quality
	default:
		return fmt.Errorf("%w: unknown review kind %q", repository.ErrInvalidInput, review.Kind)
	}

	result, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode review result: %w", err)
	}

	query := `
		INSERT INTO quality_check_results (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.exec(ctx, "review_create", query,
		review.ID,
		review.ProjectID,
		string(review.Kind),
		review.Type,
		string(result),
		review.IsFallback,
		review.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", classify(err))
	}
	return nil
}

// Get retrieves a review by ID
func (r *ReviewRepository) Get(ctx context.Context, id string) (*artifact.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM quality_check_results WHERE id = ?`

	review, err := scanReview(r.db.queryRow(ctx, "review_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// List returns a project's reviews of one kind, newest first. An empty kind lists both.
func (r *ReviewRepository) List(ctx context.Context, projectID string, kind artifact.ReviewKind, opts repository.ListOptions) ([]artifact.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM quality_check_results WHERE project_id = ?`
	args := []any{projectID}

	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query, args = withTypes(query, "type", args, opts.Types)
	query += " ORDER BY created_at DESC"
	query, args = r.db.paging(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.query(ctx, "review_list", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []artifact.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}

func scanReview(s scanner) (*artifact.Review, error) {
	var (
		review artifact.Review
		kind   string
		result string
	)
	if err := s.Scan(
		&review.ID,
		&review.ProjectID,
		&kind,
		&review.Type,
		&result,
		&review.IsFallback,
		&review.CreatedAt,
	); err != nil {
		return nil, err
	}

	review.Kind = artifact.ReviewKind(kind)
	switch review.Kind {
	case artifact.ReviewConsistency:
		review.Consistency = &artifact.ConsistencyResult{}
		if err := json.Unmarshal([]byte(result), review.Consistency); err != nil {
			return nil, fmt.Errorf("failed to decode consistency result: %w", err)
		}
	case artifact.ReviewQuality:
		review.Quality = &artifact.QualityResult{}
		if err := json.Unmarshal([]byte(result), review.Quality); err != nil {
			return nil, fmt.Errorf("failed to decode quality result: %w", err)
		}
	}
	return &review, nil
}
