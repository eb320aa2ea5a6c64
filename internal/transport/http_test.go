package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/llm/llmtest"
	"github.com/ganot/forgeline/internal/orchestrator"
	"github.com/ganot/forgeline/internal/testserver"
	"github.com/ganot/forgeline/internal/transport"
	"github.com/stretchr/testify/require"
)

func unavailable() *llmtest.Provider {
	return llmtest.Failing("primary", llm.Unavailable("primary", errors.New("503 service unavailable")))
}

func doJSON(t *testing.T, method, url string, body any, header http.Header) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func uploadFile(t *testing.T, baseURL, projectID, fileName, contentType, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/projects/"+projectID+"/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPServer_Health(t *testing.T) {
	ts := testserver.New(t, unavailable())

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(transport.RequestIDHeader))
}

func TestHTTPServer_Projects(t *testing.T) {
	ts := testserver.New(t, unavailable())
	base := ts.Server.URL

	resp := doJSON(t, http.MethodPost, base+"/api/projects", map[string]string{"id": "atlas", "name": "Atlas"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/api/projects", map[string]string{"id": "atlas", "name": "Atlas again"}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "conflict", decodeBody[transport.ErrorBody](t, resp).Error.Code)

	resp = doJSON(t, http.MethodPost, base+"/api/projects", map[string]string{"name": " "}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/api/projects", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	require.Equal(t, "Atlas", list[0]["name"])

	resp = doJSON(t, http.MethodGet, base+"/api/projects/missing", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", decodeBody[transport.ErrorBody](t, resp).Error.Code)
}

func TestHTTPServer_UploadAndSearch(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")

	resp := uploadFile(t, ts.Server.URL, projectID, "spec.html", "text/html",
		`<html><head><title>Warehouse spec</title></head><body><h1>Scope</h1><p>Track pallets per aisle.</p></body></html>`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decodeBody[artifact.Document](t, resp)
	require.Equal(t, artifact.DocTypeUploadedFile, doc.Type)
	require.Equal(t, "Warehouse spec", doc.Content.Title)
	require.Contains(t, doc.Content.Text, "# Scope")

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/projects/"+projectID+"/documents/search?q=pallets", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decodeBody[[]artifact.Document](t, resp)
	require.Len(t, found, 1)
	require.Equal(t, doc.ID, found[0].ID)

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/projects/"+projectID+"/documents/search", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "q", decodeBody[transport.ErrorBody](t, resp).Error.Field)

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/projects/"+projectID+"/documents?limit=-1", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_UploadRequiresFile(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")

	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/projects/"+projectID+"/files", map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "file", decodeBody[transport.ErrorBody](t, resp).Error.Field)
}

func TestHTTPServer_StageStatusMapping(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")
	base := ts.Server.URL + "/api/stages/"

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing project id", "document-generation", map[string]string{"document_type": "design"}, http.StatusBadRequest, "invalid_request"},
		{"no upload yet", "document-generation", map[string]string{"project_id": projectID, "document_type": "design"}, http.StatusConflict, "precondition_not_met"},
		{"unknown quality item", "quality-check", map[string]any{"project_id": projectID, "items": []string{"slides"}}, http.StatusBadRequest, "invalid_request"},
		{"inverted period", "progress-report", map[string]string{"project_id": projectID, "start_date": "2024-05-01", "end_date": "2024-04-01"}, http.StatusBadRequest, "invalid_request"},
		{"unknown template", "proposal-creation", map[string]string{"project_id": projectID, "template_id": "9"}, http.StatusBadRequest, "invalid_request"},
		{"proposal without estimate", "proposal-creation", map[string]string{"project_id": projectID, "template_id": "1"}, http.StatusConflict, "precondition_not_met"},
		{"empty consistency ids", "consistency-check", map[string]any{"document_ids": []string{}}, http.StatusBadRequest, "invalid_request"},
		{"malformed body", "work-estimation", "not an object", http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, base+tt.path, tt.body, nil)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, tt.code, decodeBody[transport.ErrorBody](t, resp).Error.Code)
		})
	}
}

func TestHTTPServer_StageRunUsesRequestID(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")
	ts.Upload(t, projectID, "notes.txt", "Track pallets per aisle.")

	header := http.Header{transport.RequestIDHeader: []string{"req-doc-1"}}
	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/stages/document-generation",
		map[string]string{"project_id": projectID, "document_type": "design"}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-doc-1", resp.Header.Get(transport.RequestIDHeader))

	res := decodeBody[orchestrator.Result](t, resp)
	require.Equal(t, "req-doc-1", res.RunID)
	require.True(t, res.IsFallback)
	require.Equal(t, "Generated design document", res.Summary)

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/runs/req-doc-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rn := decodeBody[run.Run](t, resp)
	require.Equal(t, run.StateDone, rn.State)
	require.Equal(t, res.ArtifactID, rn.ArtifactID)
	require.Equal(t, projectID, rn.ProjectID)

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/documents/"+res.ArtifactID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[artifact.Document](t, resp)
	require.Equal(t, "design", doc.Type)
	require.True(t, doc.IsFallback)
}

func TestHTTPServer_RunEventsForFinishedRun(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")

	header := http.Header{transport.RequestIDHeader: []string{"req-est-1"}}
	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/stages/work-estimation", map[string]string{"project_id": projectID}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.Server.URL+"/api/runs/req-est-1/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))
	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event: done")
	require.Contains(t, string(body), `"request_id":"req-est-1"`)
}

func TestHTTPServer_RunEventsStreamLiveRun(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.Server.URL+"/api/runs/req-live/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	require.Eventually(t, func() bool { return ts.Bus.Subscribers("req-live") == 1 }, time.Second, 10*time.Millisecond)

	_, err = ts.Orchestrator.EstimateWork(context.Background(), orchestrator.WorkEstimationRequest{RequestID: "req-live", ProjectID: projectID})
	require.NoError(t, err)

	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	text := string(body)
	require.Contains(t, text, "event: fetching_inputs")
	require.Contains(t, text, "event: generating")
	require.Contains(t, text, "event: done")
	require.Less(t, strings.Index(text, "event: fetching_inputs"), strings.Index(text, "event: done"))
}

func TestHTTPServer_EstimateAndProposal(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")
	ts.Upload(t, projectID, "notes.txt", "Track pallets per aisle.")
	base := ts.Server.URL

	resp := doJSON(t, http.MethodPost, base+"/api/stages/work-estimation", map[string]string{"project_id": projectID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[orchestrator.Result](t, resp)
	require.True(t, strings.HasPrefix(res.Summary, "Estimated total: 1000h"))

	resp = doJSON(t, http.MethodGet, base+"/api/projects/"+projectID+"/estimates/latest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	est := decodeBody[artifact.WorkEstimate](t, resp)
	require.Equal(t, res.ArtifactID, est.ID)

	resp = doJSON(t, http.MethodPatch, base+"/api/estimates/"+est.ID, map[string]any{
		"breakdown": []map[string]any{{"phase": "design", "hours": 100}},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adjusted := decodeBody[artifact.WorkEstimate](t, resp)
	require.InDelta(t, 800, adjusted.Estimate.TotalHours, 0.001)

	resp = doJSON(t, http.MethodPost, base+"/api/stages/proposal-creation", map[string]string{"project_id": projectID, "template_id": "1"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decodeBody[orchestrator.Result](t, resp)
	require.Equal(t, "Created proposal using basic", res.Summary)

	resp = doJSON(t, http.MethodGet, base+"/api/proposals/"+res.ArtifactID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	proposal := decodeBody[artifact.Proposal](t, resp)
	require.NotNil(t, proposal.PDFURL)
	require.Contains(t, proposal.Content, "Atlas Proposal")

	resp = doJSON(t, http.MethodGet, base+"/api/proposals/"+res.ArtifactID+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	resp = doJSON(t, http.MethodGet, base+"/api/proposals/missing/pdf", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Activity(t *testing.T) {
	ts := testserver.New(t, unavailable())
	projectID := ts.CreateProject(t, "Atlas")
	url := ts.Server.URL + "/api/projects/" + projectID + "/activity"

	at := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	resp := doJSON(t, http.MethodPost, url, map[string]any{"phase": "設計", "status": "完了", "task": "ER diagram", "at": at}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, url, map[string]any{"phase": "marketing", "status": "done", "task": "x"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "phase", decodeBody[transport.ErrorBody](t, resp).Error.Field)

	resp = doJSON(t, http.MethodGet, url+"?from=2024-04-01&to=2024-04-10", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeBody[[]map[string]any](t, resp)
	require.Len(t, entries, 1)
	require.Equal(t, "design", entries[0]["phase"])
	require.Equal(t, "done", entries[0]["status"])

	resp = doJSON(t, http.MethodGet, url+"?from=2024-04-11", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decodeBody[[]map[string]any](t, resp))

	resp = doJSON(t, http.MethodGet, url+"?from=April", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_Templates(t *testing.T) {
	ts := testserver.New(t, unavailable())

	resp := doJSON(t, http.MethodGet, ts.Server.URL+"/api/templates", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]map[string]any](t, resp)
	require.Len(t, list, 2)
	require.Equal(t, "1", list[0]["id"])
}

func TestHTTPServer_Metrics(t *testing.T) {
	stack := testserver.NewStack(t, unavailable())
	server := httptest.NewServer(transport.NewServer(transport.Options{API: stack.Orchestrator, Metrics: true}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "forgeline_http_request_duration_seconds")
}
