package orderstatus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransitionAdjacency(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusOpen:             {StatusConfirmed: true, StatusOnHold: true, StatusCancelled: true},
		StatusConfirmed:        {StatusInProduction: true, StatusOnHold: true, StatusCancelled: true},
		StatusInProduction:     {StatusReadyForDispatch: true, StatusOnHold: true},
		StatusReadyForDispatch: {StatusDispatched: true},
		StatusDispatched:       {StatusDelivered: true},
		StatusDelivered:        {StatusClosed: true},
		StatusOnHold:           {StatusOpen: true, StatusConfirmed: true, StatusInProduction: true},
	}

	for _, from := range All() {
		for _, to := range All() {
			err := ValidateTransition(from, to)
			switch {
			case from == to:
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, errors.Is(err, ErrNoOpTransition))
			case allowed[from][to]:
				assert.NoError(t, err, "%s -> %s", from, to)
			default:
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, errors.Is(err, ErrIllegalTransition), "%s -> %s: %v", from, to, err)
				assert.Equal(t, KindIllegalTransition, KindOf(err))
			}
		}
	}
}

func TestValidateTransitionMessages(t *testing.T) {
	err := ValidateTransition(StatusInProduction, StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, "Cannot transition from In Production to Cancelled. Allowed transitions: Ready for Dispatch, On Hold", err.Error())

	err = ValidateTransition(StatusClosed, StatusOpen)
	require.Error(t, err)
	assert.Equal(t, "Cannot transition from Closed to Open. Allowed transitions: none", err.Error())

	err = ValidateTransition(Status("Archived"), StatusOpen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCurrentStatus))
	assert.Equal(t, "Invalid current status: Archived", err.Error())

	err = ValidateTransition(StatusConfirmed, StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, "Order is already in Confirmed status", err.Error())
}

func TestIsValidTransition(t *testing.T) {
	ok, reason := IsValidTransition(StatusOpen, StatusConfirmed)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = IsValidTransition(StatusOpen, StatusDispatched)
	assert.False(t, ok)
	assert.Contains(t, reason, "Allowed transitions: Confirmed, On Hold, Cancelled")
}

func TestLockAndEditFlags(t *testing.T) {
	locked := []Status{StatusInProduction, StatusReadyForDispatch, StatusDispatched, StatusDelivered, StatusClosed, StatusCancelled}
	for _, s := range locked {
		assert.True(t, IsLocked(s), s)
		assert.False(t, CanEdit(s), s)
	}
	assert.False(t, IsLocked(StatusOpen))
	assert.False(t, IsLocked(StatusConfirmed))
	assert.False(t, IsLocked(StatusOnHold))

	assert.True(t, CanEdit(StatusOpen))
	assert.True(t, CanEdit(StatusConfirmed))
	assert.False(t, CanEdit(StatusOnHold))
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{FieldHoldReason}, RequiredFields(StatusOnHold))
	assert.Equal(t, []string{FieldCancelReason}, RequiredFields(StatusCancelled))
	assert.Len(t, RequiredFields(StatusDispatched), 4)
	assert.Empty(t, RequiredFields(StatusConfirmed))
}

func TestSuccessorsReturnsCopy(t *testing.T) {
	next := Successors(StatusOpen)
	next[0] = StatusClosed
	assert.Equal(t, StatusConfirmed, Successors(StatusOpen)[0])
	assert.True(t, StatusClosed.IsTerminal())
	assert.False(t, StatusOnHold.IsTerminal())
}
