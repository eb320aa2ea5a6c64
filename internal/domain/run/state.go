package run

var transitions = map[State][]State{
	StatePending:        {StateFetchingInputs},
	StateFetchingInputs: {StatePrompting, StateFailed},
	StatePrompting:      {StateGenerating},
	StateGenerating:     {StateValidating},
	StateValidating:     {StatePersisting},
	StatePersisting:     {StateDone, StateFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
