package quotations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusSent, StatusApproved, true},
		{StatusSent, StatusRequestChanges, true},
		{StatusSent, StatusRejected, true},
		{StatusRequestChanges, StatusSent, true},
		{StatusApproved, StatusConverted, true},
		{StatusDraft, StatusConverted, false},
		{StatusSent, StatusConverted, false},
		{StatusRejected, StatusSent, false},
		{StatusConverted, StatusDraft, false},
		{StatusSent, StatusSent, false},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := ValidateTransition(Status("Open"), StatusSent)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.False(t, IsValid("Open"))
	assert.True(t, IsValid(StatusRequestChanges))
}

type fakeRepo struct {
	quotes map[int64]*Quotation
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *q
	return &c, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, from, to Status, userID int64, _ *string) error {
	q, ok := f.quotes[id]
	if !ok {
		return ErrNotFound
	}
	if q.Status != from {
		return ErrInvalidTransition
	}
	q.Status = to
	q.ChangedBy = &userID
	return nil
}

func TestServiceConversion(t *testing.T) {
	repo := &fakeRepo{quotes: map[int64]*Quotation{
		1: {ID: 1, Status: StatusApproved},
		2: {ID: 2, Status: StatusSent},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureConvertible(ctx, 1))
	_, err := svc.Transition(ctx, 1, StatusConverted, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, repo.quotes[1].Status)
	assert.ErrorIs(t, svc.EnsureConvertible(ctx, 1), ErrInvalidTransition)

	err = svc.EnsureConvertible(ctx, 2)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.ErrorIs(t, svc.EnsureConvertible(ctx, 99), ErrNotFound)
}
