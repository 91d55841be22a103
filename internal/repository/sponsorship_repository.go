package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// SponsorshipRepository defines the interface for offers and confirmed sponsorships
type SponsorshipRepository interface {
	Create(ctx context.Context, sponsorship *domain.Sponsorship) error
	// GetByID returns nil, nil when no offer matches
	GetByID(ctx context.Context, id string) (*domain.Sponsorship, error)
	// ListByIssue returns the offers of an issue ordered by creation
	ListByIssue(ctx context.Context, issueID string) ([]*domain.Sponsorship, error)
	// UpdateStatus moves an offer from one status to another. It returns
	// domain.ErrInvalidTransition when the offer is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.SponsorshipStatus, at time.Time) error

	// CreateConfirmed inserts the confirmation. The unique issue_id constraint
	// turns a second confirmation for the same issue into domain.ErrAlreadyConfirmed.
	CreateConfirmed(ctx context.Context, confirmed *domain.ConfirmedSponsorship) error
	// GetConfirmedByID returns nil, nil when no confirmation matches
	GetConfirmedByID(ctx context.Context, id string) (*domain.ConfirmedSponsorship, error)
	// GetConfirmedByIssue returns nil, nil when the issue has no confirmation
	GetConfirmedByIssue(ctx context.Context, issueID string) (*domain.ConfirmedSponsorship, error)
	// UpdateConfirmed writes the ad copy
	UpdateConfirmed(ctx context.Context, confirmed *domain.ConfirmedSponsorship) error
	// DeleteConfirmed removes the confirmation row so the issue can be confirmed again
	DeleteConfirmed(ctx context.Context, id string) error
}
