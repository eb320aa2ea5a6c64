package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/forgeline/internal/orchestrator"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps orchestrator errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var oe *orchestrator.Error
	if !errors.As(err, &oe) {
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}

	msg := oe.Message
	var details any
	if oe.Field != "" {
		details = map[string]string{"field": oe.Field}
		msg = oe.Field + " " + msg
	}
	switch oe.Code {
	case orchestrator.CodeInvalidRequest:
		return &APIError{Code: "INVALID_REQUEST", Message: msg, Details: details, RecoveryHint: "Fix the named field"}
	case orchestrator.CodePreconditionNotMet:
		return &APIError{Code: "PRECONDITION_NOT_MET", Message: msg, RecoveryHint: "Upload or generate the missing input first"}
	case orchestrator.CodeNotFound:
		return &APIError{Code: "NOT_FOUND", Message: msg, RecoveryHint: "Check ID spelling"}
	case orchestrator.CodeConflict:
		return &APIError{Code: "CONFLICT", Message: msg, RecoveryHint: "Choose another ID"}
	default:
		return &APIError{Code: "STORAGE_FAILURE", Message: msg, RecoveryHint: "Retry later"}
	}
}
