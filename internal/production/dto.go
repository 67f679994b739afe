package production

// OutsideStep describes one outsourced process.
type OutsideStep struct {
	Process      string  `json:"process" validate:"required,max=100"`
	VendorName   string  `json:"vendor_name" validate:"required,max=200"`
	QuantitySent float64 `json:"quantity_sent" validate:"gt=0"`
}

type CreateWorkOrderRequest struct {
	SelectedTypes    []WorkType    `json:"selected_types" validate:"required,min=1,dive,oneof=Inhouse Outside"`
	InhouseProcesses []string      `json:"inhouse_processes" validate:"dive,required,max=100"`
	OutsideSteps     []OutsideStep `json:"outside_steps" validate:"dive"`
}

type ReceiveJobWorkRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

type RecordInspectionRequest struct {
	Result  InspectionResult `json:"result" validate:"required,oneof=Pass Fail"`
	Remarks *string          `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}
