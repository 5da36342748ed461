package batch

// Phase is a state of the run state machine.
type Phase int

const (
	PhaseSelecting Phase = iota
	PhaseSizing
	PhaseDispatching
	PhaseAggregating
	PhaseDone
	PhaseCanceled
	PhaseEmptyInput
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting_reference_tracks"
	case PhaseSizing:
		return "sizing"
	case PhaseDispatching:
		return "dispatching"
	case PhaseAggregating:
		return "aggregating"
	case PhaseDone:
		return "done"
	case PhaseCanceled:
		return "canceled"
	case PhaseEmptyInput:
		return "empty_input"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCanceled || p == PhaseEmptyInput
}
