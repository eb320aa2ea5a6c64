package transport

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/orchestrator"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.CreateProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	proj, err := s.api.CreateProject(r.Context(), req)
	s.respond(w, r, http.StatusCreated, proj, err)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.api.ListProjects(r.Context())
	s.respond(w, r, http.StatusOK, list, err)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.api.GetProject(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, proj, err)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, badRequest("file", "multipart form with a file field is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, badRequest("file", "could not be read"))
		return
	}
	doc, err := s.api.UploadFile(r.Context(), ingest.Upload{
		ProjectID: chi.URLParam(r, "id"),
		FileName:  header.Filename,
		MIMEType:  header.Header.Get("Content-Type"),
		Data:      data,
	})
	s.respond(w, r, http.StatusCreated, doc, err)
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.LogActivityRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.ProjectID = chi.URLParam(r, "id")
	entry, err := s.api.LogActivity(r.Context(), req)
	s.respond(w, r, http.StatusCreated, entry, err)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListActivityOptions{ProjectID: chi.URLParam(r, "id")}

	if v := q.Get("phase"); v != "" {
		opts.Phase = &v
	}
	if v := q.Get("from"); v != "" {
		from, _, err := orchestrator.ParseDate(v)
		if err != nil {
			s.writeError(w, r, badRequest("from", "must be YYYY-MM-DD or RFC 3339"))
			return
		}
		opts.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, dateOnly, err := orchestrator.ParseDate(v)
		if err != nil {
			s.writeError(w, r, badRequest("to", "must be YYYY-MM-DD or RFC 3339"))
			return
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		opts.To = &to
	}
	var err error
	if opts.Limit, opts.Offset, err = paging(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.api.ListActivity(r.Context(), opts)
	s.respond(w, r, http.StatusOK, list, err)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := s.api.ListDocuments(r.Context(), chi.URLParam(r, "id"), opts)
	s.respond(w, r, http.StatusOK, docs, err)
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := s.api.SearchDocuments(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("q"), opts)
	s.respond(w, r, http.StatusOK, docs, err)
}

func (s *Server) handleLatestReview(w http.ResponseWriter, r *http.Request) {
	kind := artifact.ReviewKind(r.URL.Query().Get("kind"))
	review, err := s.api.LatestReview(r.Context(), chi.URLParam(r, "id"), kind)
	s.respond(w, r, http.StatusOK, review, err)
}

func (s *Server) handleLatestEstimate(w http.ResponseWriter, r *http.Request) {
	est, err := s.api.LatestEstimate(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, est, err)
}

func (s *Server) handleLatestProgressReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.api.LatestProgressReport(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, report, err)
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.DocumentGenerationRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.GenerateDocument(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.CodeGenerationRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.GenerateCode(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleCheckConsistency(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ConsistencyCheckRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.CheckConsistency(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleCheckQuality(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.QualityCheckRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.CheckQuality(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleEstimateWork(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.WorkEstimationRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.EstimateWork(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleReportProgress(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ProgressReportRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.ReportProgress(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ProposalCreationRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.RequestID = s.requestID(r, req.RequestID)
	res, err := s.api.CreateProposal(r.Context(), req)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.api.GetDocument(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, doc, err)
}

func (s *Server) handleGetSourceCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.api.GetSourceCode(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, code, err)
}

func (s *Server) handleAdjustEstimate(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.AdjustEstimateRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.EstimateID = chi.URLParam(r, "id")
	est, err := s.api.AdjustEstimate(r.Context(), req)
	s.respond(w, r, http.StatusOK, est, err)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.api.GetProposal(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) handleProposalPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.api.ProposalPDF(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "proposal-"+id+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.api.ListTemplates(), nil)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rn, err := s.api.GetRun(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, rn, err)
}

// requestID prefers an id given in the body over the header-derived one.
func (s *Server) requestID(r *http.Request, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return RequestIDFromContext(r.Context())
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	opts := repository.ListOptions{}
	for _, t := range r.URL.Query()["type"] {
		if t = strings.TrimSpace(t); t != "" {
			opts.Types = append(opts.Types, t)
		}
	}
	var err error
	opts.Limit, opts.Offset, err = paging(r)
	return opts, err
}

func paging(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, badRequest("limit", "must be a non-negative integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, badRequest("offset", "must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func badRequest(field, message string) *orchestrator.Error {
	return &orchestrator.Error{Code: orchestrator.CodeInvalidRequest, Field: field, Message: message}
}
