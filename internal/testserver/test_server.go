// Package testserver assembles the full forgeline stack over in-memory
// SQLite and a scripted LLM provider for end-to-end tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/events"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/llm/llmtest"
	"github.com/ganot/forgeline/internal/lock"
	"github.com/ganot/forgeline/internal/mcp"
	"github.com/ganot/forgeline/internal/orchestrator"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/render"
	"github.com/ganot/forgeline/internal/store"
	"github.com/ganot/forgeline/internal/transport"
	"github.com/stretchr/testify/require"
)

// Stack is the wired application without an HTTP listener.
type Stack struct {
	DB           *store.DB
	Blobs        *blob.Store
	Bus          *events.Bus
	Provider     *llmtest.Provider
	Deps         orchestrator.Deps
	Orchestrator *orchestrator.Orchestrator
}

// NewStack wires every component. The provider answers as "primary"; an
// "alternate" provider that is never selected completes the gateway.
func NewStack(t *testing.T, provider *llmtest.Provider) *Stack {
	t.Helper()

	db, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	gw, err := llm.NewGateway([]llm.Provider{provider, llmtest.New("alternate", "unused")}, llm.Options{Timeout: time.Second})
	require.NoError(t, err)

	projectRepo := store.NewProjectRepository(db)
	activityRepo := store.NewActivityRepository(db)
	documents := store.NewDocumentRepository(db)
	sourceCodes := store.NewSourceCodeRepository(db)
	reviews := store.NewReviewRepository(db)
	estimates := store.NewEstimateRepository(db)
	reports := store.NewProgressReportRepository(db)
	proposals := store.NewProposalRepository(db)

	pipe := pipeline.New(pipeline.Stores{
		Projects:    projectRepo,
		Activity:    activityRepo,
		Documents:   documents,
		SourceCodes: sourceCodes,
		Reviews:     reviews,
		Estimates:   estimates,
		Reports:     reports,
		Proposals:   proposals,
	}, gw, pipeline.Options{
		DefaultProvider: provider.Name(),
		Renderer:        render.NewPDF(render.Options{}),
		Blobs:           blobs,
	})

	bus := events.NewBus()
	deps := orchestrator.Deps{
		Pipeline:    pipe,
		Projects:    project.NewService(projectRepo, nil),
		Activity:    activity.NewService(activityRepo, nil),
		Runs:        run.NewService(store.NewRunRepository(db), nil),
		Ingest:      ingest.NewService(projectRepo, documents, blobs, nil),
		Documents:   documents,
		SourceCodes: sourceCodes,
		Reviews:     reviews,
		Estimates:   estimates,
		Reports:     reports,
		Proposals:   proposals,
		Blobs:       blobs,
		Locker:      lock.NewLocal(),
		Events:      bus,
	}
	orch := orchestrator.New(deps)

	t.Cleanup(func() { _ = db.Close() })

	return &Stack{
		DB:           db,
		Blobs:        blobs,
		Bus:          bus,
		Provider:     provider,
		Deps:         deps,
		Orchestrator: orch,
	}
}

// CreateProject creates a project named name and returns its id.
func (s *Stack) CreateProject(t *testing.T, name string) string {
	t.Helper()
	proj, err := s.Orchestrator.CreateProject(context.Background(), orchestrator.CreateProjectRequest{Name: name})
	require.NoError(t, err)
	return proj.ID
}

// Upload stores text as the project's newest upload and returns the document id.
func (s *Stack) Upload(t *testing.T, projectID, fileName, text string) string {
	t.Helper()
	doc, err := s.Orchestrator.UploadFile(context.Background(), ingest.Upload{
		ProjectID: projectID,
		FileName:  fileName,
		Data:      []byte(text),
	})
	require.NoError(t, err)
	return doc.ID
}

// TestServer serves the Stack over HTTP, including the /mcp endpoint.
type TestServer struct {
	*Stack
	Server *httptest.Server
}

func New(t *testing.T, provider *llmtest.Provider) *TestServer {
	t.Helper()

	stack := NewStack(t, provider)
	mcpServer := mcp.NewServer(mcp.Config{
		Projects: stack.Orchestrator,
		Stages:   stack.Orchestrator,
		Version:  "test",
	})
	handler := transport.NewServer(transport.Options{
		API: stack.Orchestrator,
		Bus: stack.Bus,
		MCP: transport.MCPHandler(mcpServer),
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &TestServer{Stack: stack, Server: server}
}
