package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, project_id, type, content, is_fallback, created_at, updated_at`

// Create inserts a document. Content is stored as JSON.
func (r *DocumentRepository) Create(ctx context.Context, doc *artifact.Document) error {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("failed to encode document content: %w", err)
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.exec(ctx, "document_create", query,
		doc.ID,
		doc.ProjectID,
		doc.Type,
		string(content),
		doc.IsFallback,
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", classify(err))
	}
	return nil
}

// Get retrieves a document by ID
func (r *DocumentRepository) Get(ctx context.Context, id string) (*artifact.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(r.db.queryRow(ctx, "document_get", query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetMany returns the documents that exist among ids, in the order of ids.
// Missing IDs are skipped; callers compare lengths to detect them.
func (r *DocumentRepository) GetMany(ctx context.Context, ids []string) ([]artifact.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id IN ` + inClause(len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	found, err := r.collect(ctx, "document_get_many", query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]artifact.Document, len(found))
	for _, doc := range found {
		byID[doc.ID] = doc
	}
	docs := make([]artifact.Document, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if doc, ok := byID[id]; ok && !seen[id] {
			docs = append(docs, doc)
			seen[id] = true
		}
	}
	return docs, nil
}

// List returns a project's documents, newest first
func (r *DocumentRepository) List(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE project_id = ?`
	args := []any{projectID}

	query, args = withTypes(query, "type", args, opts.Types)
	query += " ORDER BY created_at DESC"
	query, args = r.db.paging(query, args, opts.Limit, opts.Offset)

	return r.collect(ctx, "document_list", query, args...)
}

// Latest returns the newest document of docType in a project
func (r *DocumentRepository) Latest(ctx context.Context, projectID, docType string) (*artifact.Document, error) {
	docs, err := r.List(ctx, projectID, repository.ListOptions{Types: []string{docType}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &docs[0], nil
}

// Search performs a full-text search over a project's documents
func (r *DocumentRepository) Search(ctx context.Context, projectID, query string, opts repository.ListOptions) ([]artifact.Document, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		stmt string
		args []any
	)
	if r.db.dialect == DialectPostgres {
		stmt = `
			SELECT ` + documentColumns + `
			FROM documents
			WHERE project_id = ?
				AND to_tsvector('simple', type || ' ' || content) @@ plainto_tsquery('simple', ?)
		`
		args = []any{projectID, strings.Join(terms, " ")}
		stmt, args = withTypes(stmt, "type", args, opts.Types)
		stmt += " ORDER BY created_at DESC"
	} else {
		stmt = `
			SELECT d.id, d.project_id, d.type, d.content, d.is_fallback, d.created_at, d.updated_at
			FROM documents_fts
			JOIN documents d ON d.rowid = documents_fts.rowid
			WHERE d.project_id = ? AND documents_fts MATCH ?
		`
		args = []any{projectID, ftsQuery(terms)}
		stmt, args = withTypes(stmt, "d.type", args, opts.Types)
		stmt += " ORDER BY bm25(documents_fts), d.created_at DESC"
	}
	stmt, args = r.db.paging(stmt, args, opts.Limit, opts.Offset)

	return r.collect(ctx, "document_search", stmt, args...)
}

func (r *DocumentRepository) collect(ctx context.Context, op, query string, args ...any) ([]artifact.Document, error) {
	rows, err := r.db.query(ctx, op, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []artifact.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

func scanDocument(s scanner) (*artifact.Document, error) {
	var (
		doc     artifact.Document
		content string
	)
	if err := s.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Type,
		&content,
		&doc.IsFallback,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &doc.Content); err != nil {
		return nil, fmt.Errorf("failed to decode document content: %w", err)
	}
	return &doc, nil
}

// ftsQuery quotes each term so user input cannot inject FTS5 operators.
func ftsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func withTypes(query, column string, args []any, types []string) (string, []any) {
	if len(types) == 0 {
		return query, args
	}
	query += " AND " + column + " IN " + inClause(len(types))
	for _, t := range types {
		args = append(args, t)
	}
	return query, args
}
