package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ganot/forgeline/internal/orchestrator"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, badRequest("body", "must be a JSON object"))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var oe *orchestrator.Error
	if !errors.As(err, &oe) {
		oe = &orchestrator.Error{Code: orchestrator.CodeStorageFailure, Message: "internal error", Err: err}
	}
	status := oe.HTTPStatus()
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: string(oe.Code), Message: oe.Message, Field: oe.Field}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
