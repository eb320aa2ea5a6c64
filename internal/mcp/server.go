package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/orchestrator"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Projects defines project and activity operations needed by MCP.
type Projects interface {
	CreateProject(ctx context.Context, req orchestrator.CreateProjectRequest) (*project.Project, error)
	ListProjects(ctx context.Context) ([]project.ProjectSummary, error)
	UploadFile(ctx context.Context, upload ingest.Upload) (*artifact.Document, error)
	LogActivity(ctx context.Context, req orchestrator.LogActivityRequest) (*activity.ActivityEntry, error)
}

// Stages defines the pipeline operations needed by MCP.
type Stages interface {
	GenerateDocument(ctx context.Context, req orchestrator.DocumentGenerationRequest) (*orchestrator.Result, error)
	GenerateCode(ctx context.Context, req orchestrator.CodeGenerationRequest) (*orchestrator.Result, error)
	CheckConsistency(ctx context.Context, req orchestrator.ConsistencyCheckRequest) (*orchestrator.Result, error)
	CheckQuality(ctx context.Context, req orchestrator.QualityCheckRequest) (*orchestrator.Result, error)
	EstimateWork(ctx context.Context, req orchestrator.WorkEstimationRequest) (*orchestrator.Result, error)
	ReportProgress(ctx context.Context, req orchestrator.ProgressReportRequest) (*orchestrator.Result, error)
	CreateProposal(ctx context.Context, req orchestrator.ProposalCreationRequest) (*orchestrator.Result, error)
	AdjustEstimate(ctx context.Context, req orchestrator.AdjustEstimateRequest) (*artifact.WorkEstimate, error)
	GetRun(ctx context.Context, id string) (*run.Run, error)
}

// Config contains server configuration.
type Config struct {
	Projects Projects
	Stages   Stages
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "forgeline",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// requestIDMiddleware runs first so inbound logs carry the request id.
	server.AddReceivingMiddleware(requestIDMiddleware(), trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}
