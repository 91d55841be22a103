package domain

import (
	"fmt"
	"time"
)

// SponsorshipStatus is the state of a sponsorship offer
type SponsorshipStatus string

const (
	SponsorshipPending   SponsorshipStatus = "pending"
	SponsorshipConfirmed SponsorshipStatus = "confirmed"
	SponsorshipWithdrawn SponsorshipStatus = "withdrawn"
)

// validTransitions lists allowed next states per current state.
// confirmed -> pending happens when the confirmation is deleted and the slot reopens.
var validTransitions = map[SponsorshipStatus][]SponsorshipStatus{
	SponsorshipPending:   {SponsorshipConfirmed, SponsorshipWithdrawn},
	SponsorshipConfirmed: {SponsorshipPending},
	SponsorshipWithdrawn: {}, // Terminal state
}

// IsValid returns true if s is a known status
func (s SponsorshipStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsTerminal returns true if no transition leaves s
func (s SponsorshipStatus) IsTerminal() bool {
	return s.IsValid() && len(validTransitions[s]) == 0
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s SponsorshipStatus) CanTransitionTo(target SponsorshipStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Sponsorship is a sponsor's offer for one issue
type Sponsorship struct {
	ID        string            `json:"id"`
	IssueID   string            `json:"issue_id"`
	SponsorID string            `json:"sponsor_id"`
	Message   string            `json:"message"`
	Status    SponsorshipStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TransitionTo moves the offer to target or returns ErrInvalidTransition
func (s *Sponsorship) TransitionTo(target SponsorshipStatus, at time.Time) error {
	if !s.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, target)
	}
	s.Status = target
	s.UpdatedAt = at
	return nil
}

// ConfirmedSponsorship is the single winning sponsorship of an issue.
// Storage keeps issue_id unique so there is never more than one per issue.
type ConfirmedSponsorship struct {
	ID            string    `json:"id"`
	IssueID       string    `json:"issue_id"`
	SponsorshipID string    `json:"sponsorship_id"`
	SponsorID     string    `json:"sponsor_id"`
	AdCopy        string    `json:"ad_copy"` // runs in the issue
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SlotState summarizes an issue's sponsorship slot
type SlotState string

const (
	SlotOpen      SlotState = "open"
	SlotPending   SlotState = "pending"
	SlotConfirmed SlotState = "confirmed"
)

// SlotStateOf derives the slot state from the issue's offers and confirmation
func SlotStateOf(offers []*Sponsorship, confirmed *ConfirmedSponsorship) SlotState {
	if confirmed != nil {
		return SlotConfirmed
	}
	for _, o := range offers {
		if o.Status == SponsorshipPending {
			return SlotPending
		}
	}
	return SlotOpen
}
