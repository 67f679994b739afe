package orders

import (
	"time"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
)

// PaymentStatus is maintained by invoicing and read as a close gate.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentPartial   PaymentStatus = "Partial"
	PaymentCompleted PaymentStatus = "Completed"
)

// IsValid reports whether p is a known payment status.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentCompleted:
		return true
	default:
		return false
	}
}

// DispatchInfo is captured when an order leaves the factory.
type DispatchInfo struct {
	VehicleNumber string     `json:"vehicle_number"`
	LRNumber      string     `json:"lr_number"`
	DriverName    string     `json:"driver_name"`
	DispatchDate  *time.Time `json:"dispatch_date,omitempty"`
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	ID        int64              `json:"id" db:"id"`
	OrderID   int64              `json:"order_id" db:"order_id"`
	Status    orderstatus.Status `json:"status" db:"status"`
	ChangedBy int64              `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time          `json:"changed_at" db:"changed_at"`
	Reason    *string            `json:"reason,omitempty" db:"reason"`
}

// Order is a sales order tracked from confirmation through production to
// dispatch and invoicing.
type Order struct {
	ID          int64  `json:"id" db:"id"`
	OrderCode   string `json:"order_code" db:"order_code"`
	SONumber    int64  `json:"so_number" db:"so_number"`
	CompanyID   int64  `json:"company_id" db:"company_id"`
	QuotationID *int64 `json:"quotation_id,omitempty" db:"quotation_id"`

	CustomerID    int64      `json:"customer_id" db:"customer_id"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	ItemName      string     `json:"item_name" db:"item_name"`
	Quantity      float64    `json:"quantity" db:"quantity"`
	UOM           string     `json:"uom" db:"uom"`
	Processes     []string   `json:"processes" db:"processes"`
	UnitPrice     float64    `json:"unit_price" db:"unit_price"`
	GSTPercent    float64    `json:"gst_percent" db:"gst_percent"`
	PackagingCost float64    `json:"packaging_cost" db:"packaging_cost"`
	TransportCost float64    `json:"transport_cost" db:"transport_cost"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty" db:"delivery_date"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`

	Status         orderstatus.Status  `json:"status" db:"status"`
	HeldFromStatus *orderstatus.Status `json:"held_from_status,omitempty" db:"held_from_status"`
	IsLocked       bool                `json:"is_locked" db:"is_locked"`
	LockedAt       *time.Time          `json:"locked_at,omitempty" db:"locked_at"`
	HoldReason     *string             `json:"hold_reason,omitempty" db:"hold_reason"`
	CancelReason   *string             `json:"cancel_reason,omitempty" db:"cancel_reason"`
	Dispatch       *DispatchInfo       `json:"dispatch_info,omitempty" db:"-"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty" db:"delivered_at"`
	DeliveredBy    *int64              `json:"delivered_by,omitempty" db:"delivered_by"`

	InvoiceGenerated bool          `json:"invoice_generated" db:"invoice_generated"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`

	Version   int64     `json:"version" db:"version"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	StatusHistory []StatusChange `json:"status_history,omitempty" db:"-"`
}

// Clone returns a deep copy so callers can stage mutations without touching
// the loaded snapshot.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.QuotationID != nil {
		v := *o.QuotationID
		c.QuotationID = &v
	}
	c.Processes = append([]string(nil), o.Processes...)
	c.DeliveryDate = cloneTime(o.DeliveryDate)
	c.Notes = cloneString(o.Notes)
	if o.HeldFromStatus != nil {
		v := *o.HeldFromStatus
		c.HeldFromStatus = &v
	}
	c.LockedAt = cloneTime(o.LockedAt)
	c.HoldReason = cloneString(o.HoldReason)
	c.CancelReason = cloneString(o.CancelReason)
	if o.Dispatch != nil {
		d := *o.Dispatch
		d.DispatchDate = cloneTime(o.Dispatch.DispatchDate)
		c.Dispatch = &d
	}
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	if o.DeliveredBy != nil {
		v := *o.DeliveredBy
		c.DeliveredBy = &v
	}
	c.StatusHistory = make([]StatusChange, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		h.Reason = cloneString(h.Reason)
		c.StatusHistory[i] = h
	}
	return &c
}

// LastChange returns the most recent history entry.
func (o *Order) LastChange() (StatusChange, bool) {
	if o == nil || len(o.StatusHistory) == 0 {
		return StatusChange{}, false
	}
	return o.StatusHistory[len(o.StatusHistory)-1], true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
