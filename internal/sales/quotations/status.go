package quotations

import (
	"fmt"
	"strings"
)

// Status is a quotation status. The quotation machine is independent of the
// order machine and shares none of its states.
type Status string

const (
	StatusDraft          Status = "Draft"
	StatusSent           Status = "Sent"
	StatusApproved       Status = "Approved"
	StatusRequestChanges Status = "RequestChanges"
	StatusRejected       Status = "Rejected"
	StatusConverted      Status = "Converted"
)

var transitions = []struct {
	from Status
	to   []Status
}{
	{StatusDraft, []Status{StatusSent}},
	{StatusSent, []Status{StatusApproved, StatusRequestChanges, StatusRejected}},
	{StatusRequestChanges, []Status{StatusSent}},
	{StatusApproved, []Status{StatusConverted}},
	{StatusRejected, nil},
	{StatusConverted, nil},
}

func successors(from Status) ([]Status, bool) {
	for _, t := range transitions {
		if t.from == from {
			return t.to, true
		}
	}
	return nil, false
}

// IsValid reports whether s is a known quotation status.
func IsValid(s Status) bool {
	_, ok := successors(s)
	return ok
}

// ValidateTransition checks from -> to against the quotation registry.
func ValidateTransition(from, to Status) error {
	next, ok := successors(from)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, from)
	}
	if from == to {
		return fmt.Errorf("%w: quotation is already %s", ErrInvalidTransition, to)
	}
	for _, s := range next {
		if s == to {
			return nil
		}
	}
	allowed := "none"
	if len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		allowed = strings.Join(names, ", ")
	}
	return fmt.Errorf("%w: cannot move quotation from %s to %s, allowed: %s", ErrInvalidTransition, from, to, allowed)
}
