package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/production"
)

func cards(statuses ...production.JobCardStatus) []production.JobCard {
	out := make([]production.JobCard, len(statuses))
	for i, s := range statuses {
		out[i] = production.JobCard{ID: int64(i + 1), OrderID: 1, Sequence: i + 1, Status: s}
	}
	return out
}

func passed() *production.Inspection {
	return &production.Inspection{ID: 1, OrderID: 1, Result: production.InspectionPass}
}

func TestEvaluatorAdvancesWhenAllWorkDone(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusInProduction))
	f.production.workOrders[1] = 1
	f.production.cards[1] = cards(production.JobCardCompleted, production.JobCardPending)
	f.production.inspections[1] = passed()
	ctx := context.Background()

	ev, err := f.eval.EvaluateProductionCompletion(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, EvalJobCardsOpen, ev.Result)
	assert.False(t, ev.Advanced)
	assert.Equal(t, orderstatus.StatusInProduction, f.store.order(1).Status)

	f.production.cards[1] = cards(production.JobCardCompleted, production.JobCardCompleted)
	ev, err = f.eval.EvaluateProductionCompletion(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, EvalAdvanced, ev.Result)
	assert.True(t, ev.Advanced)

	stored := f.store.order(1)
	assert.Equal(t, orderstatus.StatusReadyForDispatch, stored.Status)
	last, _ := stored.LastChange()
	require.NotNil(t, last.Reason)
	assert.Equal(t, ReasonProductionCompleted, *last.Reason)
	assert.Equal(t, int64(0), last.ChangedBy)

	ev, err = f.eval.EvaluateProductionCompletion(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, EvalNotInProd, ev.Result)
	assert.Equal(t, 1, f.store.saves)
	assert.Len(t, f.store.order(1).StatusHistory, 2)

	assert.Equal(t, 1, f.metrics.evaluations[EvalAdvanced])
	assert.Equal(t, 1, f.metrics.evaluations[EvalJobCardsOpen])
}

func TestEvaluatorBlockingConditions(t *testing.T) {
	tests := []struct {
		name    string
		status  orderstatus.Status
		wos     int
		cards   []production.JobCard
		works   []production.JobWork
		inspect *production.Inspection
		want    string
	}{
		{
			name:   "not in production",
			status: orderstatus.StatusConfirmed,
			wos:    1,
			cards:  cards(production.JobCardCompleted),
			want:   EvalNotInProd,
		},
		{
			name:   "no work orders",
			status: orderstatus.StatusInProduction,
			want:   EvalNoWorkOrders,
		},
		{
			name:    "no job cards",
			status:  orderstatus.StatusInProduction,
			wos:     1,
			inspect: passed(),
			want:    EvalJobCardsOpen,
		},
		{
			name:   "job work partially received",
			status: orderstatus.StatusInProduction,
			wos:    1,
			cards:  cards(production.JobCardCompleted),
			works: []production.JobWork{
				{ID: 1, OrderID: 1, QuantitySent: 100, QuantityReceived: 100, Status: production.JobWorkReturned},
				{ID: 2, OrderID: 1, QuantitySent: 100, QuantityReceived: 40, Status: production.JobWorkPartialReceived},
			},
			inspect: passed(),
			want:    EvalJobWorksOpen,
		},
		{
			name:   "inspection missing",
			status: orderstatus.StatusInProduction,
			wos:    1,
			cards:  cards(production.JobCardCompleted),
			want:   EvalNotInspected,
		},
		{
			name:    "inspection failed",
			status:  orderstatus.StatusInProduction,
			wos:     1,
			cards:   cards(production.JobCardCompleted),
			inspect: &production.Inspection{OrderID: 1, Result: production.InspectionFail},
			want:    EvalNotInspected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(sampleOrder(1, tt.status))
			f.production.workOrders[1] = tt.wos
			f.production.cards[1] = tt.cards
			f.production.works[1] = tt.works
			if tt.inspect != nil {
				f.production.inspections[1] = tt.inspect
			}

			ev, err := f.eval.EvaluateProductionCompletion(context.Background(), 1, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Result)
			assert.False(t, ev.Advanced)
			assert.Equal(t, tt.status, f.store.order(1).Status)
			assert.Zero(t, f.store.saves)
		})
	}
}

func TestEvaluatorAdvancesWithReturnedJobWorks(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusInProduction))
	f.production.workOrders[1] = 1
	f.production.works[1] = []production.JobWork{
		{ID: 1, OrderID: 1, QuantitySent: 50, QuantityReceived: 50, Status: production.JobWorkReturned},
	}
	f.production.cards[1] = cards(production.JobCardCompleted)
	f.production.inspections[1] = passed()

	ev, err := f.eval.EvaluateProductionCompletion(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.True(t, ev.Advanced)
	assert.Equal(t, orderstatus.StatusReadyForDispatch, ev.Order.Status)
}

func TestEvaluatorReadFailure(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusInProduction))
	f.production.workOrders[1] = 1
	f.production.readErr = errDisk

	ev, err := f.eval.EvaluateProductionCompletion(context.Background(), 1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, EvalReadFailed, ev.Result)
	assert.Equal(t, orderstatus.StatusInProduction, f.store.order(1).Status)
}

func TestEvaluatorUnknownOrder(t *testing.T) {
	f := newFixture()
	ev, err := f.eval.EvaluateProductionCompletion(context.Background(), 42, 0)
	assert.ErrorIs(t, err, orderstatus.ErrNotFound)
	assert.Equal(t, EvalReadFailed, ev.Result)
}

func TestEvaluatorAdvanceFailure(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusInProduction))
	f.production.workOrders[1] = 1
	f.production.cards[1] = cards(production.JobCardCompleted)
	f.production.inspections[1] = passed()
	f.store.saveErr = errDisk

	ev, err := f.eval.EvaluateProductionCompletion(context.Background(), 1, 0)
	assert.ErrorIs(t, err, orderstatus.ErrPersistence)
	assert.Equal(t, EvalAdvanceFailed, ev.Result)
}
