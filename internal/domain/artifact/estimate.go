package artifact

import (
	"fmt"
	"math"
	"strings"
)

// NewEstimate builds an estimate whose total is the sum of its breakdown.
func NewEstimate(breakdown []PhaseHours) (Estimate, error) {
	if len(breakdown) == 0 {
		return Estimate{}, fmt.Errorf("%w: breakdown is empty", ErrInvalidEstimate)
	}
	phases := make([]PhaseHours, 0, len(breakdown))
	for i, p := range breakdown {
		name := strings.TrimSpace(p.Phase)
		if name == "" {
			return Estimate{}, fmt.Errorf("%w: breakdown[%d] has no phase", ErrInvalidEstimate, i)
		}
		if p.Hours < 0 || math.IsNaN(p.Hours) || math.IsInf(p.Hours, 0) {
			return Estimate{}, fmt.Errorf("%w: breakdown[%d] has invalid hours %v", ErrInvalidEstimate, i, p.Hours)
		}
		phases = append(phases, PhaseHours{Phase: name, Hours: p.Hours})
	}
	e := Estimate{Breakdown: phases}
	e.TotalHours = e.Sum()
	return e, nil
}

// Sum adds the breakdown hours in order.
func (e Estimate) Sum() float64 {
	var total float64
	for _, p := range e.Breakdown {
		total += p.Hours
	}
	return total
}

// Consistent reports whether TotalHours equals the breakdown sum exactly.
func (e Estimate) Consistent() bool {
	return e.TotalHours == e.Sum()
}

// Adjust replaces the hours of the named phases and recomputes the total.
// Phases not present in the estimate are appended.
func (e Estimate) Adjust(changes []PhaseHours) (Estimate, error) {
	next := make([]PhaseHours, len(e.Breakdown))
	copy(next, e.Breakdown)

	for _, change := range changes {
		name := strings.TrimSpace(change.Phase)
		found := false
		for i := range next {
			if next[i].Phase == name {
				next[i].Hours = change.Hours
				found = true
				break
			}
		}
		if !found {
			next = append(next, PhaseHours{Phase: name, Hours: change.Hours})
		}
	}

	return NewEstimate(next)
}
