package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Gateway failure modes. Every error returned by Gateway.Generate matches
// exactly one of them via errors.Is.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrProviderRejected    = errors.New("provider rejected request")
)

// ProviderError carries the provider name and underlying cause of a failed call.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Is matches the failure kind sentinel.
func (e *ProviderError) Is(target error) bool {
	return target == e.Kind
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as ErrProviderUnavailable.
func Unavailable(provider string, err error) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderUnavailable, Err: err}
}

// Timeout wraps err as ErrProviderTimeout.
func Timeout(provider string, err error) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderTimeout, Err: err}
}

// Rejected wraps err as ErrProviderRejected.
func Rejected(provider string, err error) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderRejected, Err: err}
}

// FromStatus classifies a non-2xx HTTP response. Auth failures and an
// unreachable upstream count as unavailable; everything else is a rejection.
func FromStatus(provider string, status int, err error) error {
	if err == nil {
		err = fmt.Errorf("http status %d", status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadGateway, http.StatusServiceUnavailable:
		return Unavailable(provider, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return Timeout(provider, err)
	default:
		return Rejected(provider, err)
	}
}

// Classify normalizes an arbitrary provider error. Errors that already carry a
// kind are returned unchanged; deadline errors become timeouts and anything
// else is treated as a transport failure.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(provider, err)
	}
	return Unavailable(provider, err)
}

// Retryable reports whether a stage may retry after err.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderTimeout)
}

// Outcome is the metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrProviderTimeout):
		return "timeout"
	case errors.Is(err, ErrProviderRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
