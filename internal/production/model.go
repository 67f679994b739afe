// Package production tracks the dependent work spawned from a confirmed
// order: work orders, in-house job cards, outsourced job works and the final
// inspection.
package production

import "time"

// WorkType selects which trackers a work order spawns.
type WorkType string

const (
	WorkTypeInhouse WorkType = "Inhouse"
	WorkTypeOutside WorkType = "Outside"
)

// JobCardStatus is the status of an in-house process step.
type JobCardStatus string

const (
	JobCardPending    JobCardStatus = "Pending"
	JobCardInProgress JobCardStatus = "In Progress"
	JobCardCompleted  JobCardStatus = "Completed"
)

// JobWorkStatus is the status of an outsourced process step.
type JobWorkStatus string

const (
	JobWorkSent            JobWorkStatus = "Sent"
	JobWorkInProcess       JobWorkStatus = "In Process"
	JobWorkPartialReceived JobWorkStatus = "Partial Received"
	JobWorkReturned        JobWorkStatus = "Returned"
	JobWorkCompleted       JobWorkStatus = "Completed"
)

// InspectionResult is the quality gate outcome.
type InspectionResult string

const (
	InspectionPass InspectionResult = "Pass"
	InspectionFail InspectionResult = "Fail"
)

type WorkOrder struct {
	ID            int64      `json:"id" db:"id"`
	OrderID       int64      `json:"order_id" db:"order_id"`
	WONumber      string     `json:"wo_number" db:"wo_number"`
	SelectedTypes []WorkType `json:"selected_types" db:"selected_types"`
	Quantity      float64    `json:"quantity" db:"quantity"`
	CreatedBy     int64      `json:"created_by" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Has reports whether t was selected for the work order.
func (w WorkOrder) Has(t WorkType) bool {
	for _, s := range w.SelectedTypes {
		if s == t {
			return true
		}
	}
	return false
}

type JobCard struct {
	ID          int64         `json:"id" db:"id"`
	WorkOrderID int64         `json:"work_order_id" db:"work_order_id"`
	OrderID     int64         `json:"order_id" db:"order_id"`
	Process     string        `json:"process" db:"process"`
	Sequence    int           `json:"sequence" db:"sequence"`
	Status      JobCardStatus `json:"status" db:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedBy *int64        `json:"completed_by,omitempty" db:"completed_by"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

type JobWork struct {
	ID               int64         `json:"id" db:"id"`
	WorkOrderID      int64         `json:"work_order_id" db:"work_order_id"`
	OrderID          int64         `json:"order_id" db:"order_id"`
	Process          string        `json:"process" db:"process"`
	VendorName       string        `json:"vendor_name" db:"vendor_name"`
	QuantitySent     float64       `json:"quantity_sent" db:"quantity_sent"`
	QuantityReceived float64       `json:"quantity_received" db:"quantity_received"`
	Status           JobWorkStatus `json:"status" db:"status"`
	SentAt           *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	ReturnedAt       *time.Time    `json:"returned_at,omitempty" db:"returned_at"`
}

// IsFullyReturned reports whether everything sent out has come back.
func (j JobWork) IsFullyReturned() bool {
	switch j.Status {
	case JobWorkReturned, JobWorkCompleted:
		return true
	}
	return j.QuantitySent > 0 && j.QuantityReceived >= j.QuantitySent
}

// DeriveJobWorkStatus computes the status implied by the quantities.
func DeriveJobWorkStatus(sent, received float64) JobWorkStatus {
	switch {
	case received <= 0:
		return JobWorkSent
	case received < sent:
		return JobWorkPartialReceived
	default:
		return JobWorkReturned
	}
}

type Inspection struct {
	ID          int64            `json:"id" db:"id"`
	OrderID     int64            `json:"order_id" db:"order_id"`
	Result      InspectionResult `json:"result" db:"result"`
	Remarks     *string          `json:"remarks,omitempty" db:"remarks"`
	InspectedBy int64            `json:"inspected_by" db:"inspected_by"`
	InspectedAt time.Time        `json:"inspected_at" db:"inspected_at"`
}

// CompletedJob is written when an order passes inspection.
type CompletedJob struct {
	ID           int64     `json:"id" db:"id"`
	OrderID      int64     `json:"order_id" db:"order_id"`
	InspectionID int64     `json:"inspection_id" db:"inspection_id"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}
