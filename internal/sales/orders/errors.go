package orders

import "errors"

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrVersionConflict indicates the order changed since it was read.
	ErrVersionConflict = errors.New("order was modified concurrently")
	// ErrDuplicateNumber indicates an order code or SO number collision.
	ErrDuplicateNumber = errors.New("order number already allocated")

	ErrQuotationNotConvertible = errors.New("quotation cannot be converted to an order")
	ErrInvalidPaymentStatus    = errors.New("invalid payment status")
	ErrInvalidStatusFilter     = errors.New("unknown order status")
)
