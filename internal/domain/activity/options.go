package activity

import "time"

// ListActivityOptions provides filtering options for listing activity.
// From and To are inclusive.
type ListActivityOptions struct {
	ProjectID string
	Phase     *string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
