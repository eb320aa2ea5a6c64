package pipeline

import "errors"

var (
	// ErrPrecondition indicates a required input artifact does not exist.
	// The stage aborts instead of falling back.
	ErrPrecondition = errors.New("precondition not met")
	// ErrStorage indicates the artifact store failed. Nothing was committed.
	ErrStorage = errors.New("storage failure")
	// ErrMixedProjects indicates consistency-check documents span several projects.
	ErrMixedProjects = errors.New("documents belong to different projects")
	// ErrUnknownTemplate indicates a proposal template id outside the catalog.
	ErrUnknownTemplate = errors.New("unknown proposal template")
	// ErrInvalidPeriod indicates a report period whose start is after its end.
	ErrInvalidPeriod = errors.New("invalid report period")
	// ErrOutputShape indicates provider output that does not match the stage's shape.
	ErrOutputShape = errors.New("output shape invalid")
)
