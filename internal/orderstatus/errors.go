package orderstatus

import "errors"

// Kind classifies order lifecycle failures. Each kind maps to one
// user-facing message and one HTTP status in the transport layer.
type Kind string

const (
	KindNotFound                 Kind = "NotFound"
	KindInvalidCurrentStatus     Kind = "InvalidCurrentStatus"
	KindIllegalTransition        Kind = "IllegalTransition"
	KindNoOpTransition           Kind = "NoOpTransition"
	KindMissingRequiredField     Kind = "MissingRequiredField"
	KindClosePreconditionNotMet  Kind = "ClosePreconditionNotMet"
	KindProductionAlreadyStarted Kind = "ProductionAlreadyStarted"
	KindEditNotAllowed           Kind = "EditNotAllowed"
	KindLockedFieldEdit          Kind = "LockedFieldEdit"
	KindPersistenceError         Kind = "PersistenceError"
)

// Sentinels for errors.Is matching against *Error values.
var (
	ErrNotFound                 = errors.New("order not found")
	ErrInvalidCurrentStatus     = errors.New("invalid current status")
	ErrIllegalTransition        = errors.New("illegal status transition")
	ErrNoOpTransition           = errors.New("no-op status transition")
	ErrMissingRequiredField     = errors.New("missing required field")
	ErrClosePreconditionNotMet  = errors.New("close precondition not met")
	ErrProductionAlreadyStarted = errors.New("production already started")
	ErrEditNotAllowed           = errors.New("edit not allowed in current status")
	ErrLockedFieldEdit          = errors.New("field is locked after confirmation")
	ErrPersistence              = errors.New("persistence error")
)

var sentinels = map[Kind]error{
	KindNotFound:                 ErrNotFound,
	KindInvalidCurrentStatus:     ErrInvalidCurrentStatus,
	KindIllegalTransition:        ErrIllegalTransition,
	KindNoOpTransition:           ErrNoOpTransition,
	KindMissingRequiredField:     ErrMissingRequiredField,
	KindClosePreconditionNotMet:  ErrClosePreconditionNotMet,
	KindProductionAlreadyStarted: ErrProductionAlreadyStarted,
	KindEditNotAllowed:           ErrEditNotAllowed,
	KindLockedFieldEdit:          ErrLockedFieldEdit,
	KindPersistenceError:         ErrPersistence,
}

// Error is the typed failure returned by every lifecycle operation.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func newError(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// NewError builds a lifecycle error of the given kind.
func NewError(kind Kind, field, message string) *Error {
	return newError(kind, field, message)
}

// Wrap builds a lifecycle error that keeps cause reachable through errors.As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if s, ok := sentinels[e.Kind]; ok {
		return s.Error()
	}
	return string(e.Kind)
}

// Is matches the per-kind sentinel.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return ""
}
