package model

// ObjectiveStatus is the qualitative verdict the vision model assigns to a
// single page objective.
//
// Design decision: We use a typed string rather than iota constants because
// the value arrives verbatim from the vision API's JSON response and is
// serialized back out unchanged. A string type keeps parsing trivial while
// still giving callers a place to hang validation.
type ObjectiveStatus string

const (
	// StatusPass indicates the objective is clearly met.
	StatusPass ObjectiveStatus = "pass"

	// StatusPartial indicates the objective is partially met with issues.
	StatusPartial ObjectiveStatus = "partial"

	// StatusFail indicates the objective is not met.
	StatusFail ObjectiveStatus = "fail"
)

// Valid reports whether the status is one of the known verdicts.
func (s ObjectiveStatus) Valid() bool {
	switch s {
	case StatusPass, StatusPartial, StatusFail:
		return true
	default:
		return false
	}
}

// String returns a human-readable representation of the status.
func (s ObjectiveStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusPartial:
		return "PARTIAL"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}
