package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSponsorshipStatus_Transitions(t *testing.T) {
	tests := []struct {
		from SponsorshipStatus
		to   SponsorshipStatus
		want bool
	}{
		{SponsorshipPending, SponsorshipConfirmed, true},
		{SponsorshipPending, SponsorshipWithdrawn, true},
		{SponsorshipConfirmed, SponsorshipPending, true},
		{SponsorshipConfirmed, SponsorshipWithdrawn, false},
		{SponsorshipWithdrawn, SponsorshipPending, false},
		{SponsorshipWithdrawn, SponsorshipConfirmed, false},
		{"bogus", SponsorshipPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, SponsorshipWithdrawn.IsTerminal())
	assert.False(t, SponsorshipConfirmed.IsTerminal())
	assert.False(t, SponsorshipStatus("bogus").IsValid())
}

func TestSponsorship_TransitionTo(t *testing.T) {
	at := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	s := &Sponsorship{Status: SponsorshipPending}

	require.NoError(t, s.TransitionTo(SponsorshipConfirmed, at))
	assert.Equal(t, SponsorshipConfirmed, s.Status)
	assert.Equal(t, at, s.UpdatedAt)

	err := s.TransitionTo(SponsorshipWithdrawn, at)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, SponsorshipConfirmed, s.Status)
}

func TestSlotStateOf(t *testing.T) {
	pending := &Sponsorship{Status: SponsorshipPending}
	withdrawn := &Sponsorship{Status: SponsorshipWithdrawn}

	assert.Equal(t, SlotOpen, SlotStateOf(nil, nil))
	assert.Equal(t, SlotOpen, SlotStateOf([]*Sponsorship{withdrawn}, nil))
	assert.Equal(t, SlotPending, SlotStateOf([]*Sponsorship{withdrawn, pending}, nil))
	assert.Equal(t, SlotConfirmed, SlotStateOf([]*Sponsorship{pending}, &ConfirmedSponsorship{}))
}

func TestNotFoundErrorsShareSentinel(t *testing.T) {
	for _, err := range []error{
		ErrUserNotFound, ErrNewsletterNotFound, ErrIssueNotFound,
		ErrSponsorshipNotFound, ErrConfirmedSponsorshipNotFound,
	} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("slug", MsgTaken)
	verr.Add("name", MsgRequired)
	verr.Add("slug", MsgInvalidSlug)

	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, verr.Has("slug"))
	assert.False(t, verr.Has("interval_days"))
	assert.Equal(t, []string{MsgTaken, MsgInvalidSlug}, verr.Fields["slug"])
	assert.Equal(t, "validation failed: name can't be blank; slug has already been taken, "+MsgInvalidSlug, err.Error())

	wrapped := errors.Join(errors.New("create newsletter"), err)
	got, ok := AsValidationError(wrapped)
	require.True(t, ok)
	assert.Same(t, verr, got)

	_, ok = AsValidationError(ErrNotFound)
	assert.False(t, ok)
}

func TestNewsletter_WindowFor(t *testing.T) {
	due := time.Date(2026, time.December, 1, 9, 0, 0, 0, time.UTC)
	n := &Newsletter{SponsorInDays: 10, SponsorBeforeDays: 2}

	w := n.WindowFor(&Issue{DueAt: due})
	assert.Equal(t, due.AddDate(0, 0, -10), w.OpensAt)
	assert.Equal(t, due.AddDate(0, 0, -2), w.ClosesAt)
	assert.False(t, n.IsDeleted())
}
