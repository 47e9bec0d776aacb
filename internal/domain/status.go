package domain

// MatchStatus is the reviewer-facing lifecycle state of a match.
// It is independent of the numeric score.
type MatchStatus string

const (
	MatchStatusNew       MatchStatus = "new"
	MatchStatusReviewed  MatchStatus = "reviewed"
	MatchStatusContacted MatchStatus = "contacted"
	MatchStatusRejected  MatchStatus = "rejected"
)

// InitialMatchStatus is the only state a record can be created in.
const InitialMatchStatus = MatchStatusNew

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusNew:       {MatchStatusReviewed, MatchStatusRejected},
	MatchStatusReviewed:  {MatchStatusContacted, MatchStatusRejected},
	MatchStatusContacted: {MatchStatusRejected},
	MatchStatusRejected:  nil,
}

// ParseMatchStatus validates a raw status value.
func ParseMatchStatus(s string) (MatchStatus, error) {
	status := MatchStatus(s)
	if !IsValidMatchStatus(status) {
		return "", ErrInvalidMatchStatus
	}
	return status, nil
}

// IsValidMatchStatus checks if a MatchStatus is one of the known states
func IsValidMatchStatus(s MatchStatus) bool {
	_, ok := matchTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s MatchStatus) IsTerminal() bool {
	return IsValidMatchStatus(s) && len(matchTransitions[s]) == 0
}

// CanTransition reports whether the workflow allows moving from one status to another.
// A transition to the same status is not a transition and returns false.
func CanTransition(from, to MatchStatus) bool {
	for _, next := range matchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s MatchStatus) []MatchStatus {
	next := matchTransitions[s]
	out := make([]MatchStatus, len(next))
	copy(out, next)
	return out
}
