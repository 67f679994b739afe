package production

import "errors"

var (
	ErrNotFound            = errors.New("production record not found")
	ErrOrderNotConfirmed   = errors.New("order must be Confirmed or In Production to create a work order")
	ErrNoWorkTypes         = errors.New("work order requires at least one selected type")
	ErrNoProcesses         = errors.New("work order requires at least one process step")
	ErrInvalidJobCardState = errors.New("job card cannot move from its current status")
	ErrInvalidQuantity     = errors.New("received quantity must be positive")
	ErrOverReceipt         = errors.New("received quantity exceeds quantity sent")
	ErrJobWorkClosed       = errors.New("job work already fully returned")
	ErrJobWorkConflict     = errors.New("job work was modified concurrently")
	ErrInvalidResult       = errors.New("inspection result must be Pass or Fail")
)
