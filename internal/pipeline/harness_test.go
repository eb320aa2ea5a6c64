package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/llm/llmtest"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/store"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	db       *store.DB
	stores   pipeline.Stores
	provider *llmtest.Provider
	blobs    *blob.Store
	pipe     *pipeline.Pipeline
}

func newHarness(t *testing.T, provider *llmtest.Provider, configure ...func(*pipeline.Options, *pipeline.Stores)) *harness {
	t.Helper()

	db, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	gw, err := llm.NewGateway([]llm.Provider{provider, llmtest.New("alternate", "unused")}, llm.Options{Timeout: time.Second})
	require.NoError(t, err)

	stores := pipeline.Stores{
		Projects:    store.NewProjectRepository(db),
		Activity:    store.NewActivityRepository(db),
		Documents:   store.NewDocumentRepository(db),
		SourceCodes: store.NewSourceCodeRepository(db),
		Reviews:     store.NewReviewRepository(db),
		Estimates:   store.NewEstimateRepository(db),
		Reports:     store.NewProgressReportRepository(db),
		Proposals:   store.NewProposalRepository(db),
	}
	seq := 0
	opts := pipeline.Options{
		DefaultProvider: provider.Name(),
		Blobs:           blobs,
		Now:             func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	for _, c := range configure {
		c(&opts, &stores)
	}

	return &harness{
		db:       db,
		stores:   stores,
		provider: provider,
		blobs:    blobs,
		pipe:     pipeline.New(stores, gw, opts),
	}
}

func (h *harness) seedProject(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, store.NewProjectRepository(h.db).Create(context.Background(), &project.Project{
		ID:          id,
		Name:        "Atlas",
		Description: "Inventory management for warehouses",
		CreatedAt:   testNow,
	}))
}

func (h *harness) seedDocument(t *testing.T, id, projectID, docType, text string) {
	t.Helper()
	require.NoError(t, store.NewDocumentRepository(h.db).Create(context.Background(), &artifact.Document{
		ID:        id,
		ProjectID: projectID,
		Type:      docType,
		Content:   artifact.Content{Text: text},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}))
}

func newTracker() *run.Tracker {
	return run.NewTracker(run.Run{ID: "req-1"}, nil)
}

func unavailable() *llmtest.Provider {
	return llmtest.Failing("primary", llm.Unavailable("primary", errors.New("503 service unavailable")))
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) RenderProposal(title string, p artifact.Proposal) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 " + title), nil
}
