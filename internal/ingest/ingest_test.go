package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/ganot/forgeline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExtract_HTML(t *testing.T) {
	page := `<html><head><title>Stock Spec</title><style>p{color:red}</style></head>
<body><h1>Requirements</h1><script>alert(1)</script><ul><li>Track stock</li><li>Report shortages</li></ul></body></html>`

	got, err := NewExtractor().Extract("spec.html", "", []byte(page))
	require.NoError(t, err)
	require.Equal(t, "Stock Spec", got.Title)
	require.Contains(t, got.Text, "# Requirements")
	require.Contains(t, got.Text, "Track stock")
	require.NotContains(t, got.Text, "alert")
	require.NotContains(t, got.Text, "color")
}

func TestExtract_PlainAndBinary(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract("notes.txt", "text/plain", []byte("\ufeff  Interview notes \n"))
	require.NoError(t, err)
	require.Equal(t, "Interview notes", got.Text)

	got, err = e.Extract("scan.pdf", "application/pdf", []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff})
	require.NoError(t, err)
	require.Empty(t, got.Text)
	require.Equal(t, "application/pdf", got.MIMEType)
}

func TestDetectMIME(t *testing.T) {
	require.Equal(t, "text/csv", DetectMIME("a.csv", "text/csv", nil))
	require.Equal(t, "text/html; charset=utf-8", DetectMIME("a.HTM", "application/octet-stream", nil))
	require.Equal(t, "text/plain; charset=utf-8", DetectMIME("noext", "", []byte("hello")))
}

func TestKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	require.Equal(t, "uploads/1700000000000_spec.txt", Key(at, "spec.txt"))
	require.Equal(t, "uploads/1700000000000_evil.txt", Key(at, "../../evil.txt"))
	require.Equal(t, "uploads/1700000000000_a.txt", Key(at, `C:\docs\a.txt`))
	require.Equal(t, "uploads/1700000000000_upload", Key(at, ""))
}

func newService(t *testing.T, projects *mocks.ProjectRepository, docs *mocks.DocumentRepository) (*Service, *blob.Store) {
	t.Helper()
	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(projects, docs, blobs, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return svc, blobs
}

func TestUploadFile(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	projects.On("Get", mock.Anything, "p1").Return(&project.Project{ID: "p1"}, nil)
	docs := &mocks.DocumentRepository{}
	docs.On("Create", mock.Anything, mock.MatchedBy(func(d *artifact.Document) bool {
		return d.Type == artifact.DocTypeUploadedFile && d.ProjectID == "p1"
	})).Return(nil)

	svc, blobs := newService(t, projects, docs)
	doc, err := svc.UploadFile(context.Background(), Upload{ProjectID: "p1", FileName: "notes.txt", Data: []byte("hello")})
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Content.Text)
	require.Equal(t, "uploads/1700000000000_notes.txt", doc.Content.FilePath)

	data, err := blobs.Get(context.Background(), doc.Content.FilePath)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
	docs.AssertExpectations(t)
}

func TestUploadFile_Errors(t *testing.T) {
	projects := &mocks.ProjectRepository{}
	projects.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
	projects.On("Get", mock.Anything, "p1").Return(&project.Project{ID: "p1"}, nil)
	docs := &mocks.DocumentRepository{}
	docs.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc, blobs := newService(t, projects, docs)
	ctx := context.Background()

	_, err := svc.UploadFile(ctx, Upload{ProjectID: "p1", FileName: "a.txt"})
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.UploadFile(ctx, Upload{ProjectID: "missing", FileName: "a.txt", Data: []byte("x")})
	require.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.UploadFile(ctx, Upload{ProjectID: "p1", FileName: "a.txt", Data: []byte("x")})
	require.Error(t, err)
	_, err = blobs.Get(ctx, Key(svc.now(), "a.txt"))
	require.ErrorIs(t, err, blob.ErrNotFound)
}
