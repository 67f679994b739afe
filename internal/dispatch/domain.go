// Package dispatch records goods leaving the factory for an order.
package dispatch

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("dispatch not found")
	ErrOrderNotReady    = errors.New("order must be Ready for Dispatch")
	ErrAlreadyExists    = errors.New("order already has a dispatch")
	ErrInsufficientData = errors.New("vehicle number, LR number, driver name and dispatch date are required")
)

// Dispatch is the transport document for an order.
type Dispatch struct {
	ID            int64     `json:"id" db:"id"`
	DocNumber     string    `json:"doc_number" db:"doc_number"`
	OrderID       int64     `json:"order_id" db:"order_id"`
	VehicleNumber string    `json:"vehicle_number" db:"vehicle_number"`
	LRNumber      string    `json:"lr_number" db:"lr_number"`
	DriverName    string    `json:"driver_name" db:"driver_name"`
	DispatchDate  time.Time `json:"dispatch_date" db:"dispatch_date"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy     int64     `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CreateDispatchRequest carries the transport details.
type CreateDispatchRequest struct {
	VehicleNumber string    `json:"vehicle_number" validate:"required,max=50"`
	LRNumber      string    `json:"lr_number" validate:"required,max=50"`
	DriverName    string    `json:"driver_name" validate:"required,max=100"`
	DispatchDate  time.Time `json:"dispatch_date" validate:"required"`
	Notes         *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r CreateDispatchRequest) complete() bool {
	return r.VehicleNumber != "" && r.LRNumber != "" && r.DriverName != "" && !r.DispatchDate.IsZero()
}
