package activity

import "errors"

var (
	// ErrInvalidInput indicates an activity entry that cannot be logged.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrUnknownPhase indicates a phase outside the fixed progress phases.
	ErrUnknownPhase = errors.New("unknown activity phase")
	// ErrUnknownStatus indicates a task status outside the known set.
	ErrUnknownStatus = errors.New("unknown activity status")
)
