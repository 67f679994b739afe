package production

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveJobWorkStatus(t *testing.T) {
	assert.Equal(t, JobWorkSent, DeriveJobWorkStatus(10, 0))
	assert.Equal(t, JobWorkPartialReceived, DeriveJobWorkStatus(10, 4))
	assert.Equal(t, JobWorkReturned, DeriveJobWorkStatus(10, 10))
}

func TestIsFullyReturned(t *testing.T) {
	assert.False(t, JobWork{QuantitySent: 10, QuantityReceived: 0, Status: JobWorkSent}.IsFullyReturned())
	assert.False(t, JobWork{QuantitySent: 10, QuantityReceived: 9, Status: JobWorkInProcess}.IsFullyReturned())
	assert.True(t, JobWork{QuantitySent: 10, QuantityReceived: 10, Status: JobWorkPartialReceived}.IsFullyReturned())
	assert.True(t, JobWork{QuantitySent: 10, Status: JobWorkCompleted}.IsFullyReturned())
	assert.True(t, JobWork{QuantitySent: 10, Status: JobWorkReturned}.IsFullyReturned())
}

func TestWorkOrderHas(t *testing.T) {
	wo := WorkOrder{SelectedTypes: []WorkType{WorkTypeOutside}}
	assert.True(t, wo.Has(WorkTypeOutside))
	assert.False(t, wo.Has(WorkTypeInhouse))
}
