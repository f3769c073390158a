package api

import "fmt"

// State is a stage of the post pipeline.
type State string

const (
	StateIdle           State = "idle"
	StateSearching      State = "searching"
	StateSummarizing    State = "summarizing"
	StatePostGenerating State = "post_generating"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// ValidateStateTransition checks whether a pipeline state transition is valid.
// The pipeline only moves forward; every non-terminal stage may fail.
func ValidateStateTransition(from, to State) *APIError {
	valid := map[State][]State{
		StateIdle:           {StateSearching, StateFailed},
		StateSearching:      {StateSummarizing, StateFailed},
		StateSummarizing:    {StatePostGenerating, StateFailed},
		StatePostGenerating: {StateDone, StateFailed},
	}

	for _, s := range valid[from] {
		if s == to {
			return nil
		}
	}

	return NewInvalidRequestError("state",
		fmt.Sprintf("invalid transition from %s to %s", from, to))
}
