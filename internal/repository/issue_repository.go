package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// IssueRepository defines the interface for issue data access.
// Reads never return soft-deleted issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	// GetByID returns nil, nil unless the issue belongs to newsletterID and is not deleted
	GetByID(ctx context.Context, newsletterID, id string) (*domain.Issue, error)
	// FindLive returns an issue whose newsletter is also live, or nil, nil
	FindLive(ctx context.Context, id string) (*domain.Issue, error)
	// ListByNewsletter returns issues ordered by due_at ascending
	ListByNewsletter(ctx context.Context, newsletterID string) ([]*domain.Issue, error)
	// ListUpcomingBySlugs returns issues with due_at > now ordered by due_at ascending
	ListUpcomingBySlugs(ctx context.Context, userSlug, newsletterSlug string, now time.Time) ([]*domain.Issue, error)
	// Update writes name and due_at. newsletter_id is never written.
	Update(ctx context.Context, issue *domain.Issue) error
	// SoftDelete sets deleted_at once; a second call returns domain.ErrIssueNotFound
	SoftDelete(ctx context.Context, newsletterID, id string, at time.Time) error
}
