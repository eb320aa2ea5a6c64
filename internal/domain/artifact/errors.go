package artifact

import "errors"

var (
	// ErrInvalidEstimate indicates a breakdown that cannot form a valid estimate.
	ErrInvalidEstimate = errors.New("invalid estimate")
	// ErrDocumentNotFound indicates the document doesn't exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSourceCodeNotFound indicates the source code doesn't exist.
	ErrSourceCodeNotFound = errors.New("source code not found")
	// ErrReviewNotFound indicates no review exists.
	ErrReviewNotFound = errors.New("review not found")
	// ErrEstimateNotFound indicates the work estimate doesn't exist.
	ErrEstimateNotFound = errors.New("work estimate not found")
	// ErrReportNotFound indicates the progress report doesn't exist.
	ErrReportNotFound = errors.New("progress report not found")
	// ErrProposalNotFound indicates the proposal doesn't exist.
	ErrProposalNotFound = errors.New("proposal not found")
)
