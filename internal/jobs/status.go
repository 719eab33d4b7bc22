package jobs

import "github.com/JaimeStill/deck-translate/pkg/apperror"

// Status is a job's position in the workflow.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusExtracting  Status = "extracting"
	StatusExtracted   Status = "extracted"
	StatusTranslating Status = "translating"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var transitions = map[Status][]Status{
	StatusUploaded:    {StatusExtracting},
	StatusExtracting:  {StatusExtracted, StatusFailed},
	StatusExtracted:   {StatusTranslating},
	StatusTranslating: {StatusCompleted, StatusFailed},
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns INVALID_STATE_TRANSITION for illegal moves.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperror.Newf(apperror.CodeInvalidStateTransition, "illegal transition %s -> %s", from, to).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}
