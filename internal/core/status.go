package core

import "strings"

const (
	StatusApproved StatusName = "APPROVED"
	StatusPending  StatusName = "PENDING"
	StatusRejected StatusName = "REJECTED"
)

type StatusName string

// Status is the review state attached to works and profiles.
type Status struct {
	ID         int64
	StatusName string
}

// ParseStatus upper-cases s and reports whether it is a known status.
func ParseStatus(s string) (StatusName, bool) {
	n := StatusName(strings.ToUpper(strings.TrimSpace(s)))
	switch n {
	case StatusApproved, StatusPending, StatusRejected:
		return n, true
	}
	return n, false
}

// Name returns the upper-cased status name, PENDING when empty.
func (s *Status) Name() StatusName {
	if s == nil || strings.TrimSpace(s.StatusName) == "" {
		return StatusPending
	}
	return StatusName(strings.ToUpper(strings.TrimSpace(s.StatusName)))
}

// StatusLabel lets the table engine render the status as a badge.
func (s *Status) StatusLabel() string {
	if s == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(s.StatusName))
}

// CanTransition reports whether a review may move from the current status to next.
// Only pending works can be approved or rejected.
func CanTransition(current, next StatusName) bool {
	if current != StatusPending {
		return false
	}
	return next == StatusApproved || next == StatusRejected
}
