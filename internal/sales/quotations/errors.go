package quotations

import "errors"

var (
	ErrNotFound          = errors.New("quotation not found")
	ErrInvalidStatus     = errors.New("invalid quotation status")
	ErrInvalidTransition = errors.New("invalid quotation status transition")
)
