package filter

// Outcome classifies how a single filter fared during deserialization.
type Outcome int

const (
	// OutcomeAbsent means the query carried nothing for the filter.
	OutcomeAbsent Outcome = iota
	// OutcomeResolved means the value was reconstructed.
	OutcomeResolved
	// OutcomeDefaulted means the incoming value was malformed and the default was used.
	OutcomeDefaulted
	// OutcomeDropped means the referenced record does not exist any more.
	OutcomeDropped
	// OutcomeFailed means the lookup itself failed; the filter is left out.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return "absent"
	case OutcomeResolved:
		return "resolved"
	case OutcomeDefaulted:
		return "defaulted"
	case OutcomeDropped:
		return "dropped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Kept reports whether the outcome contributes a filter to the reconstructed set.
func (o Outcome) Kept() bool {
	return o == OutcomeResolved || o == OutcomeDefaulted
}

// Result is the outcome of deserializing one filter.
type Result struct {
	Key     string
	Value   Value
	Outcome Outcome
	Err     error
}

func resolved(v Value) Result {
	return Result{Value: v, Outcome: OutcomeResolved}
}

func defaulted(v Value, err error) Result {
	return Result{Value: v, Outcome: OutcomeDefaulted, Err: err}
}

// absent carries the default value so callers that want default filling can use it.
func absent(def Value) Result {
	return Result{Value: def, Outcome: OutcomeAbsent}
}
