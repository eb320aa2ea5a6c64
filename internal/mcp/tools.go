package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/orchestrator"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type createProjectInput struct {
	ID          string `json:"id,omitempty" jsonschema:"Unique project identifier, generated when omitted"`
	Name        string `json:"name" jsonschema:"Project display name"`
	Description string `json:"description,omitempty" jsonschema:"Project description"`
}

type listProjectsInput struct{}

type uploadTextInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project that owns the upload"`
	FileName  string `json:"file_name" jsonschema:"Original file name, used for type detection"`
	Content   string `json:"content" jsonschema:"File content as text or HTML"`
	MIMEType  string `json:"mime_type,omitempty" jsonschema:"Declared MIME type"`
}

type logActivityInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project the task belongs to"`
	Phase     string `json:"phase" jsonschema:"requirements, design, development or test"`
	Status    string `json:"status" jsonschema:"todo, in_progress or done"`
	Task      string `json:"task" jsonschema:"Task name"`
	At        string `json:"at,omitempty" jsonschema:"Event time as RFC 3339 or YYYY-MM-DD, defaults to now"`
}

type getRunInput struct {
	ID string `json:"id" jsonschema:"Run id returned by a stage tool"`
}

func registerTools(server *sdkmcp.Server, cfg Config) {
	p, s := cfg.Projects, cfg.Stages

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a new project to collect uploads and generated artifacts",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in createProjectInput) (*sdkmcp.CallToolResult, any, error) {
		return respond(p.CreateProject(ctx, orchestrator.CreateProjectRequest{ID: in.ID, Name: in.Name, Description: in.Description}))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with their artifact counts",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listProjectsInput) (*sdkmcp.CallToolResult, any, error) {
		return respond(p.ListProjects(ctx))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "upload_text",
		Description: "Upload a text or HTML file; it becomes the newest uploaded_file document of the project",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in uploadTextInput) (*sdkmcp.CallToolResult, any, error) {
		return respond(p.UploadFile(ctx, ingest.Upload{
			ProjectID: in.ProjectID,
			FileName:  in.FileName,
			MIMEType:  in.MIMEType,
			Data:      []byte(in.Content),
		}))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "log_activity",
		Description: "Log a task event against a project phase; progress reports are computed from these",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in logActivityInput) (*sdkmcp.CallToolResult, any, error) {
		req := orchestrator.LogActivityRequest{ProjectID: in.ProjectID, Phase: in.Phase, Status: in.Status, Task: in.Task}
		if strings.TrimSpace(in.At) != "" {
			at, _, err := orchestrator.ParseDate(in.At)
			if err != nil {
				return errorResult(&orchestrator.Error{Code: orchestrator.CodeInvalidRequest, Field: "at", Message: "must be YYYY-MM-DD or RFC 3339"}), nil, nil
			}
			req.At = &at
		}
		return respond(p.LogActivity(ctx, req))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_document",
		Description: "Generate a document of the given type from the newest uploaded file",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.DocumentGenerationRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.GenerateDocument(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_code",
		Description: "Generate one source file implementing a document",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.CodeGenerationRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.GenerateCode(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "check_consistency",
		Description: "Cross-check documents of one project for contradictions and gaps",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.ConsistencyCheckRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.CheckConsistency(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "check_quality",
		Description: "Rate the quality of documents and/or source code; items are document or source_code",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.QualityCheckRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.CheckQuality(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "estimate_work",
		Description: "Estimate remaining work in hours per phase from the project's artifacts",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.WorkEstimationRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.EstimateWork(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "report_progress",
		Description: "Summarise logged activity between start_date and end_date",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.ProgressReportRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.ReportProgress(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_proposal",
		Description: "Write a client proposal from a template and render it to PDF",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.ProposalCreationRequest) (*sdkmcp.CallToolResult, any, error) {
		in.RequestID = requestID(ctx, in.RequestID)
		return respond(s.CreateProposal(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "adjust_estimate",
		Description: "Replace the hours of named phases of a work estimate; the total is recomputed",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in orchestrator.AdjustEstimateRequest) (*sdkmcp.CallToolResult, any, error) {
		return respond(s.AdjustEstimate(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_run",
		Description: "Get a finished stage run by its run id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in getRunInput) (*sdkmcp.CallToolResult, any, error) {
		return respond(s.GetRun(ctx, in.ID))
	})
}

// requestID prefers the explicit argument over the transport-level id.
func requestID(ctx context.Context, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return getRequestID(ctx)
}

// respond renders v as indented JSON, or err as an error result.
func respond[T any](v T, err error) (*sdkmcp.CallToolResult, any, error) {
	if err != nil {
		return errorResult(err), nil, nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
