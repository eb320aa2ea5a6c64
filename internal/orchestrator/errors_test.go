package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodePreconditionNotMet, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeStorageFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			require.Equal(t, tt.status, (&Error{Code: tt.code}).HTTPStatus())
		})
	}
}

func TestError_Message(t *testing.T) {
	err := invalid("language", "is required")
	require.Equal(t, "invalid_request: language: is required", err.Error())

	cause := errors.New("disk full")
	wrapped := storageFailure("saving", cause)
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "storage_failure: saving failed: disk full", wrapped.Error())
}

func TestMapStageError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  Code
		field string
	}{
		{"precondition", fmt.Errorf("%w: uploaded file", pipeline.ErrPrecondition), CodePreconditionNotMet, ""},
		{"mixed projects", pipeline.ErrMixedProjects, CodeInvalidRequest, "document_ids"},
		{"unknown template", pipeline.ErrUnknownTemplate, CodeInvalidRequest, "template_id"},
		{"invalid period", pipeline.ErrInvalidPeriod, CodeInvalidRequest, "start_date"},
		{"storage", fmt.Errorf("%w: insert", pipeline.ErrStorage), CodeStorageFailure, ""},
		{"already mapped", invalid("items", "bad"), CodeInvalidRequest, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapStageError(tt.err)
			require.Equal(t, tt.code, got.Code)
			require.Equal(t, tt.field, got.Field)
		})
	}
}

func TestMapQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"repository not found", repository.ErrNotFound, CodeNotFound},
		{"project not found", project.ErrProjectNotFound, CodeNotFound},
		{"foreign key", fmt.Errorf("failed to insert: %w", repository.ErrForeignKeyViolation), CodeNotFound},
		{"project exists", project.ErrProjectExists, CodeConflict},
		{"invalid project", project.ErrInvalidInput, CodeInvalidRequest},
		{"unknown phase", activity.ErrUnknownPhase, CodeInvalidRequest},
		{"unknown status", activity.ErrUnknownStatus, CodeInvalidRequest},
		{"other", errors.New("connection reset"), CodeStorageFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, mapQueryError("thing", tt.err).Code)
		})
	}
}

func TestMapBlobError(t *testing.T) {
	require.Equal(t, CodeNotFound, mapBlobError(blob.ErrNotFound).Code)
	require.Equal(t, CodeStorageFailure, mapBlobError(errors.New("permission denied")).Code)
}

func TestMetricResult(t *testing.T) {
	require.Equal(t, "success", metricResult(nil, false))
	require.Equal(t, "fallback", metricResult(nil, true))
	require.Equal(t, "precondition_not_met", metricResult(&Error{Code: CodePreconditionNotMet}, false))
	require.Equal(t, "storage_failure", metricResult(errors.New("x"), false))
}
