package quotations

import "time"

// Quotation is the pre-order offer an order may be converted from.
type Quotation struct {
	ID           int64      `json:"id" db:"id"`
	DocNumber    string     `json:"doc_number" db:"doc_number"`
	CompanyID    int64      `json:"company_id" db:"company_id"`
	CustomerID   int64      `json:"customer_id" db:"customer_id"`
	Status       Status     `json:"status" db:"status"`
	TotalAmount  float64    `json:"total_amount" db:"total_amount"`
	StatusReason *string    `json:"status_reason,omitempty" db:"status_reason"`
	ChangedBy    *int64     `json:"changed_by,omitempty" db:"changed_by"`
	ChangedAt    *time.Time `json:"changed_at,omitempty" db:"changed_at"`
	CreatedBy    int64      `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
