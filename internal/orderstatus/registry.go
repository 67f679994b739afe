// Package orderstatus defines the order lifecycle statuses and the graph of
// legal transitions between them.
package orderstatus

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle position of a sales order.
type Status string

const (
	StatusOpen             Status = "Open"
	StatusConfirmed        Status = "Confirmed"
	StatusInProduction     Status = "In Production"
	StatusReadyForDispatch Status = "Ready for Dispatch"
	StatusDispatched       Status = "Dispatched"
	StatusDelivered        Status = "Delivered"
	StatusClosed           Status = "Closed"
	StatusOnHold           Status = "On Hold"
	StatusCancelled        Status = "Cancelled"
)

// Field paths named by RequiredFields and by MissingRequiredField errors.
const (
	FieldHoldReason            = "holdReason"
	FieldCancelReason          = "cancelReason"
	FieldDispatchVehicleNumber = "dispatchInfo.vehicleNumber"
	FieldDispatchLRNumber      = "dispatchInfo.lrNumber"
	FieldDispatchDriverName    = "dispatchInfo.driverName"
	FieldDispatchDate          = "dispatchInfo.dispatchDate"
)

// transitions is ordered; the order is reproduced in error messages.
var transitions = map[Status][]Status{
	StatusOpen:             {StatusConfirmed, StatusOnHold, StatusCancelled},
	StatusConfirmed:        {StatusInProduction, StatusOnHold, StatusCancelled},
	StatusInProduction:     {StatusReadyForDispatch, StatusOnHold},
	StatusReadyForDispatch: {StatusDispatched},
	StatusDispatched:       {StatusDelivered},
	StatusDelivered:        {StatusClosed},
	StatusOnHold:           {StatusOpen, StatusConfirmed, StatusInProduction},
	StatusCancelled:        {},
	StatusClosed:           {},
}

var lockedStatuses = map[Status]struct{}{
	StatusInProduction:     {},
	StatusReadyForDispatch: {},
	StatusDispatched:       {},
	StatusDelivered:        {},
	StatusClosed:           {},
	StatusCancelled:        {},
}

// All returns every known status in lifecycle order.
func All() []Status {
	return []Status{
		StatusOpen,
		StatusConfirmed,
		StatusInProduction,
		StatusReadyForDispatch,
		StatusDispatched,
		StatusDelivered,
		StatusClosed,
		StatusOnHold,
		StatusCancelled,
	}
}

// IsValid reports whether s is a recognised status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s Status) String() string { return string(s) }

// Successors returns the statuses reachable from current in one step.
func Successors(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ValidateTransition checks the move from current to next against the
// transition graph. The returned *Error carries the user-facing message.
func ValidateTransition(current, next Status) error {
	allowed, ok := transitions[current]
	if !ok {
		return newError(KindInvalidCurrentStatus, "", fmt.Sprintf("Invalid current status: %s", current))
	}
	if current == next {
		return newError(KindNoOpTransition, "", fmt.Sprintf("Order is already in %s status", current))
	}
	for _, candidate := range allowed {
		if candidate == next {
			return nil
		}
	}
	return newError(KindIllegalTransition, "", fmt.Sprintf(
		"Cannot transition from %s to %s. Allowed transitions: %s",
		current, next, joinStatuses(allowed),
	))
}

// IsValidTransition is the boolean form of ValidateTransition. The reason is
// empty when the transition is allowed.
func IsValidTransition(current, next Status) (bool, string) {
	if err := ValidateTransition(current, next); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// IsLocked reports whether orders in status s have their domain fields frozen.
func IsLocked(s Status) bool {
	_, ok := lockedStatuses[s]
	return ok
}

// CanEdit reports whether domain fields may be edited in status s.
func CanEdit(s Status) bool {
	return s == StatusOpen || s == StatusConfirmed
}

// RequiredFields lists the payload fields a transition into next must supply.
func RequiredFields(next Status) []string {
	switch next {
	case StatusOnHold:
		return []string{FieldHoldReason}
	case StatusCancelled:
		return []string{FieldCancelReason}
	case StatusDispatched:
		return []string{
			FieldDispatchVehicleNumber,
			FieldDispatchLRNumber,
			FieldDispatchDriverName,
			FieldDispatchDate,
		}
	default:
		return nil
	}
}

func joinStatuses(list []Status) string {
	if len(list) == 0 {
		return "none"
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
