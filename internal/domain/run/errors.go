package run

import "errors"

var (
	// ErrRunNotFound indicates the run doesn't exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrInvalidTransition indicates a state change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid run state transition")
)
