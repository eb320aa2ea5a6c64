package orchestrator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
)

// Code classifies an error for callers.
type Code string

const (
	CodeInvalidRequest     Code = "invalid_request"
	CodePreconditionNotMet Code = "precondition_not_met"
	CodeStorageFailure     Code = "storage_failure"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
)

// Error is the caller-visible error of every orchestrator operation.
type Error struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code onto an HTTP status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodePreconditionNotMet, CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string, err error) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found", Err: err}
}

func storageFailure(action string, err error) *Error {
	return &Error{Code: CodeStorageFailure, Message: action + " failed", Err: err}
}

// mapStageError converts a pipeline error into an *Error.
func mapStageError(err error) *Error {
	var oe *Error
	switch {
	case errors.As(err, &oe):
		return oe
	case errors.Is(err, pipeline.ErrMixedProjects):
		return &Error{Code: CodeInvalidRequest, Field: "document_ids", Message: "documents must belong to one project", Err: err}
	case errors.Is(err, pipeline.ErrUnknownTemplate):
		return &Error{Code: CodeInvalidRequest, Field: "template_id", Message: "unknown template", Err: err}
	case errors.Is(err, pipeline.ErrInvalidPeriod):
		return &Error{Code: CodeInvalidRequest, Field: "start_date", Message: "start_date must not be after end_date", Err: err}
	case errors.Is(err, pipeline.ErrPrecondition):
		return &Error{Code: CodePreconditionNotMet, Message: "required input is missing", Err: err}
	default:
		return storageFailure("stage", err)
	}
}

// mapQueryError converts a read or supplementary-operation error into an *Error.
func mapQueryError(what string, err error) *Error {
	var oe *Error
	switch {
	case errors.As(err, &oe):
		return oe
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, run.ErrRunNotFound),
		errors.Is(err, ingest.ErrProjectNotFound),
		errors.Is(err, repository.ErrForeignKeyViolation):
		return notFound(what, err)
	case errors.Is(err, project.ErrProjectExists), errors.Is(err, repository.ErrConflict):
		return &Error{Code: CodeConflict, Message: what + " already exists", Err: err}
	case errors.Is(err, project.ErrInvalidInput):
		return &Error{Code: CodeInvalidRequest, Field: "name", Message: "name is required", Err: err}
	case errors.Is(err, ingest.ErrEmptyFile):
		return &Error{Code: CodeInvalidRequest, Field: "file", Message: "file is empty", Err: err}
	case errors.Is(err, activity.ErrUnknownPhase):
		return &Error{Code: CodeInvalidRequest, Field: "phase", Message: "unknown phase", Err: err}
	case errors.Is(err, activity.ErrUnknownStatus):
		return &Error{Code: CodeInvalidRequest, Field: "status", Message: "unknown status", Err: err}
	case errors.Is(err, activity.ErrInvalidInput):
		return &Error{Code: CodeInvalidRequest, Field: "task", Message: "task is required", Err: err}
	case errors.Is(err, artifact.ErrInvalidEstimate):
		return &Error{Code: CodeInvalidRequest, Field: "breakdown", Message: "invalid breakdown", Err: err}
	default:
		return storageFailure(what, err)
	}
}

func mapBlobError(err error) *Error {
	if errors.Is(err, blob.ErrNotFound) {
		return notFound("proposal pdf", err)
	}
	return storageFailure("reading proposal pdf", err)
}

// metricResult is the stage_runs label for an outcome.
func metricResult(err error, isFallback bool) string {
	if err == nil {
		if isFallback {
			return "fallback"
		}
		return "success"
	}
	var oe *Error
	if errors.As(err, &oe) {
		return string(oe.Code)
	}
	return string(CodeStorageFailure)
}
