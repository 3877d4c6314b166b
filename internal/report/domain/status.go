package domain

import "strings"

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var forwardOrder = []Status{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// Index is the position of s in the forward order, or -1 for unknown values.
func (s Status) Index() int {
	for i, candidate := range forwardOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool {
	return s.Index() >= 0
}

func (s Status) Terminal() bool {
	return s == StatusClosed
}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// CanAdvance reports whether to is strictly later than from. The arbiter's
// revert from resolved to in_progress never goes through this check.
func CanAdvance(from, to Status) bool {
	fromIdx, toIdx := from.Index(), to.Index()
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx > fromIdx
}
