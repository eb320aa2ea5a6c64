package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `forgeline turns uploaded project material into engineering artifacts with an LLM.

Typical flow:
1) create_project, then upload_text with requirement notes or a spec.
2) generate_document (document_type such as requirements, design, test) derives a document from the newest upload.
3) generate_code turns a document into one source file.
4) check_consistency (document ids) and check_quality (items: document, source_code) grade the artifacts.
5) log_activity records task progress; estimate_work and report_progress summarise the project.
6) create_proposal writes a client proposal from a template and renders it to PDF.

Every stage returns artifact_id, run_id, summary and is_fallback. is_fallback=true means the
provider failed or returned unusable output and a placeholder artifact was stored instead.
Use get_run with the run_id to inspect the finished run.

Docs: forgeline://docs/pipeline
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "forgeline://docs/pipeline",
		Name:        "docs_pipeline",
		Title:       "Pipeline stages",
		Description: "What each stage reads, what it stores and how failures are reported.",
		Content: `# forgeline pipeline

## Stages

| Tool | Reads | Stores |
|---|---|---|
| ` + "`generate_document`" + ` | newest uploaded_file document | document of the requested type |
| ` + "`generate_code`" + ` | one document | source code |
| ` + "`check_consistency`" + ` | documents of one project | consistency review (score 0-100, issues, suggestions) |
| ` + "`check_quality`" + ` | documents and/or source code | quality review (score 60-100 per item) |
| ` + "`estimate_work`" + ` | all documents and source code | work estimate (hours per phase) |
| ` + "`report_progress`" + ` | activity log within the period | progress report (percent per phase, issues) |
| ` + "`create_proposal`" + ` | documents, latest estimate, latest progress report | proposal text and PDF |

## Preconditions

- generate_document needs at least one upload in the project.
- create_proposal needs at least one document and one work estimate.
- check_quality needs at least one artifact for every requested item.

A missing input is reported as ` + "`PRECONDITION_NOT_MET`" + ` and nothing is stored.

## Fallbacks

Provider errors, timeouts and malformed output never fail a stage. The stage stores a
deterministic placeholder and sets ` + "`is_fallback: true`" + `. Retry the stage later to
replace it; the newest artifact always wins.

## Errors

- ` + "`INVALID_REQUEST`" + `: a field is missing or malformed. ` + "`details.field`" + ` names it.
- ` + "`PRECONDITION_NOT_MET`" + `: required input artifacts do not exist yet.
- ` + "`NOT_FOUND`" + `: the referenced project, artifact or run does not exist.
- ` + "`STORAGE_FAILURE`" + `: the store could not be read or written.

## Templates

Proposal templates: 1 (basic: overview, scope, schedule, cost) and 2 (detailed: adds
background, architecture, risks, team and terms).
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
