// Package transport serves the REST API, the run event stream and the
// streamable MCP endpoint over HTTP.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/events"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/metrics"
	"github.com/ganot/forgeline/internal/orchestrator"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// API is the orchestrator surface exposed over HTTP.
type API interface {
	CreateProject(ctx context.Context, req orchestrator.CreateProjectRequest) (*project.Project, error)
	ListProjects(ctx context.Context) ([]project.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	UploadFile(ctx context.Context, upload ingest.Upload) (*artifact.Document, error)
	LogActivity(ctx context.Context, req orchestrator.LogActivityRequest) (*activity.ActivityEntry, error)
	ListActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)

	GenerateDocument(ctx context.Context, req orchestrator.DocumentGenerationRequest) (*orchestrator.Result, error)
	GenerateCode(ctx context.Context, req orchestrator.CodeGenerationRequest) (*orchestrator.Result, error)
	CheckConsistency(ctx context.Context, req orchestrator.ConsistencyCheckRequest) (*orchestrator.Result, error)
	CheckQuality(ctx context.Context, req orchestrator.QualityCheckRequest) (*orchestrator.Result, error)
	EstimateWork(ctx context.Context, req orchestrator.WorkEstimationRequest) (*orchestrator.Result, error)
	ReportProgress(ctx context.Context, req orchestrator.ProgressReportRequest) (*orchestrator.Result, error)
	CreateProposal(ctx context.Context, req orchestrator.ProposalCreationRequest) (*orchestrator.Result, error)

	AdjustEstimate(ctx context.Context, req orchestrator.AdjustEstimateRequest) (*artifact.WorkEstimate, error)
	GetDocument(ctx context.Context, id string) (*artifact.Document, error)
	ListDocuments(ctx context.Context, projectID string, opts repository.ListOptions) ([]artifact.Document, error)
	SearchDocuments(ctx context.Context, projectID, query string, opts repository.ListOptions) ([]artifact.Document, error)
	GetSourceCode(ctx context.Context, id string) (*artifact.SourceCode, error)
	LatestReview(ctx context.Context, projectID string, kind artifact.ReviewKind) (*artifact.Review, error)
	LatestEstimate(ctx context.Context, projectID string) (*artifact.WorkEstimate, error)
	LatestProgressReport(ctx context.Context, projectID string) (*artifact.ProgressReport, error)
	GetProposal(ctx context.Context, id string) (*artifact.Proposal, error)
	ProposalPDF(ctx context.Context, id string) ([]byte, error)
	GetRun(ctx context.Context, id string) (*run.Run, error)
	ListTemplates() []pipeline.Template
}

// Options configures the HTTP server. Bus, MCP and Logger may be nil.
type Options struct {
	API     API
	Bus     *events.Bus
	MCP     http.Handler
	Metrics bool
	Logger  *slog.Logger
	// RunPollInterval controls how often an open event stream re-checks the
	// recorded run. Defaults to two seconds.
	RunPollInterval time.Duration
}

// Server wires HTTP handlers.
type Server struct {
	api    API
	bus    *events.Bus
	logger *slog.Logger
	poll   time.Duration
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(metricsMiddleware)

	poll := opts.RunPollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	srv := &Server{api: opts.API, bus: opts.Bus, logger: opts.Logger, poll: poll}

	r.Get("/health", srv.handleHealth)
	if opts.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", srv.handleCreateProject)
			r.Get("/", srv.handleListProjects)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", srv.handleGetProject)
				r.Post("/files", srv.handleUploadFile)
				r.Post("/activity", srv.handleLogActivity)
				r.Get("/activity", srv.handleListActivity)
				r.Get("/documents", srv.handleListDocuments)
				r.Get("/documents/search", srv.handleSearchDocuments)
				r.Get("/reviews/latest", srv.handleLatestReview)
				r.Get("/estimates/latest", srv.handleLatestEstimate)
				r.Get("/progress-reports/latest", srv.handleLatestProgressReport)
			})
		})

		r.Route("/stages", func(r chi.Router) {
			r.Post("/document-generation", srv.handleGenerateDocument)
			r.Post("/code-generation", srv.handleGenerateCode)
			r.Post("/consistency-check", srv.handleCheckConsistency)
			r.Post("/quality-check", srv.handleCheckQuality)
			r.Post("/work-estimation", srv.handleEstimateWork)
			r.Post("/progress-report", srv.handleReportProgress)
			r.Post("/proposal-creation", srv.handleCreateProposal)
		})

		r.Get("/documents/{id}", srv.handleGetDocument)
		r.Get("/source-codes/{id}", srv.handleGetSourceCode)
		r.Patch("/estimates/{id}", srv.handleAdjustEstimate)
		r.Get("/proposals/{id}", srv.handleGetProposal)
		r.Get("/proposals/{id}/pdf", srv.handleProposalPDF)
		r.Get("/templates", srv.handleListTemplates)
		r.Get("/runs/{id}", srv.handleGetRun)
		r.Get("/runs/{id}/events", srv.handleRunEvents)
	})

	return r
}

// MCPHandler serves an MCP server over the streamable HTTP transport.
func MCPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type requestIDKey struct{}

// RequestIDHeader carries the generation-request id. It becomes the run id
// of stage calls.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware honours an incoming X-Request-ID or generates one and
// echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request id set by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
