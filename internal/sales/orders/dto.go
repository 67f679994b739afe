package orders

import (
	"time"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
)

// CreateOrderRequest carries the initial field values of a new order.
type CreateOrderRequest struct {
	CompanyID     int64      `json:"company_id" validate:"required,gt=0"`
	QuotationID   *int64     `json:"quotation_id,omitempty" validate:"omitempty,gt=0"`
	CustomerID    int64      `json:"customer_id" validate:"required,gt=0"`
	CustomerName  string     `json:"customer_name" validate:"required,max=200"`
	ItemName      string     `json:"item_name" validate:"required,max=200"`
	Quantity      float64    `json:"quantity" validate:"required,gt=0"`
	UOM           string     `json:"uom" validate:"required,max=20"`
	Processes     []string   `json:"processes" validate:"dive,required"`
	UnitPrice     float64    `json:"unit_price" validate:"gte=0"`
	GSTPercent    float64    `json:"gst_percent" validate:"gte=0,lte=100"`
	PackagingCost float64    `json:"packaging_cost" validate:"gte=0"`
	TransportCost float64    `json:"transport_cost" validate:"gte=0"`
	TotalAmount   float64    `json:"total_amount" validate:"gte=0"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// UpdateOrderRequest edits domain fields. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	CustomerName  *string    `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	ItemName      *string    `json:"item_name,omitempty" validate:"omitempty,max=200"`
	Quantity      *float64   `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UOM           *string    `json:"uom,omitempty" validate:"omitempty,max=20"`
	Processes     *[]string  `json:"processes,omitempty" validate:"omitempty,dive,required"`
	UnitPrice     *float64   `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	GSTPercent    *float64   `json:"gst_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	PackagingCost *float64   `json:"packaging_cost,omitempty" validate:"omitempty,gte=0"`
	TransportCost *float64   `json:"transport_cost,omitempty" validate:"omitempty,gte=0"`
	TotalAmount   *float64   `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// RecordPaymentRequest updates the payment gate.
type RecordPaymentRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=Pending Partial Completed"`
}

// ListOrdersRequest filters and pages the order listing.
type ListOrdersRequest struct {
	CompanyID  int64
	CustomerID *int64
	Status     *orderstatus.Status
	Page       int
	PerPage    int
}

const maxPerPage = 100

func (r ListOrdersRequest) limit() int {
	switch {
	case r.PerPage <= 0:
		return 20
	case r.PerPage > maxPerPage:
		return maxPerPage
	default:
		return r.PerPage
	}
}

func (r ListOrdersRequest) offset() int {
	if r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.limit()
}
