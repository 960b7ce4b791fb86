package token

// State is the review state of a block. The engine treats it as an opaque
// tag except for StateRejected, which it sets during review-mode overlap
// resolution.
type State string

// Well-known states.
const (
	StateCandidate State = "Candidate"
	StateAccepted  State = "Accepted"
	StateRejected  State = "Rejected"
)

// String returns the state tag.
func (s State) String() string {
	return string(s)
}

// IsRejected returns true for StateRejected.
func (s State) IsRejected() bool {
	return s == StateRejected
}

// Mode selects the overlap policy used by an insertion.
type Mode int

const (
	// ModeAnnotate replaces overlapping blocks with the new selection.
	ModeAnnotate Mode = iota
	// ModeReview demotes overlapping blocks to Rejected and keeps them.
	ModeReview
)

// String returns the page name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAnnotate:
		return "annotate"
	case ModeReview:
		return "review"
	default:
		return "unknown"
	}
}

// ParseMode parses a page name into a Mode. Unknown names map to ModeAnnotate.
func ParseMode(s string) Mode {
	switch s {
	case "review", "REVIEW":
		return ModeReview
	default:
		return ModeAnnotate
	}
}
