// Package ingest stores uploaded files and records them as uploaded_file documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/google/uuid"
)

var (
	// ErrEmptyFile indicates an upload without content.
	ErrEmptyFile = errors.New("uploaded file is empty")
	// ErrProjectNotFound indicates the upload targets an unknown project.
	ErrProjectNotFound = errors.New("project not found")
)

// BlobStore persists raw upload bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is one received file.
type Upload struct {
	ProjectID string
	FileName  string
	MIMEType  string
	Data      []byte
}

// Service ingests uploads.
type Service struct {
	projects  project.Repository
	docs      repository.DocumentRepository
	blobs     BlobStore
	extractor *Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates an ingest service.
func NewService(projects project.Repository, docs repository.DocumentRepository, blobs BlobStore, logger *slog.Logger) *Service {
	return &Service{
		projects:  projects,
		docs:      docs,
		blobs:     blobs,
		extractor: NewExtractor(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Key is the blob key for an upload received at t.
func Key(t time.Time, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return "uploads/" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + name
}

// UploadFile stores the bytes and creates the uploaded_file document that
// Document Generation reads.
func (s *Service) UploadFile(ctx context.Context, u Upload) (*artifact.Document, error) {
	if len(u.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if _, err := s.projects.Get(ctx, u.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}

	extracted, err := s.extractor.Extract(u.FileName, u.MIMEType, u.Data)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	now := s.now()
	key, err := s.blobs.Put(ctx, Key(now, u.FileName), u.Data)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	doc := &artifact.Document{
		ID:        uuid.NewString(),
		ProjectID: u.ProjectID,
		Type:      artifact.DocTypeUploadedFile,
		Content: artifact.Content{
			Title:    extracted.Title,
			Text:     extracted.Text,
			FilePath: key,
			MIMEType: extracted.MIMEType,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil && s.logger != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("file uploaded", "project_id", u.ProjectID, "document_id", doc.ID, "mime_type", extracted.MIMEType, "bytes", len(u.Data))
	}
	return doc, nil
}
