package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// NewsletterRepository defines the interface for newsletter data access.
// Reads never return soft-deleted newsletters.
type NewsletterRepository interface {
	// Create inserts a newsletter, returning domain.ErrSlugTaken when the owner already uses the slug
	Create(ctx context.Context, newsletter *domain.Newsletter) error
	// GetByID returns the owner's newsletter, or nil, nil when it is missing, deleted or owned by someone else
	GetByID(ctx context.Context, userID, id string) (*domain.Newsletter, error)
	// FindLive returns a live newsletter without owner scoping, for sponsor-facing reads
	FindLive(ctx context.Context, id string) (*domain.Newsletter, error)
	// GetBySlugs resolves a newsletter through its owner's slug
	GetBySlugs(ctx context.Context, userSlug, newsletterSlug string) (*domain.Newsletter, error)
	// ListByUser returns the owner's newsletters ordered by creation
	ListByUser(ctx context.Context, userID string) ([]*domain.Newsletter, error)
	// ListByUserSlug returns the newsletters of the user with the given slug
	ListByUserSlug(ctx context.Context, userSlug string) ([]*domain.Newsletter, error)
	// ExistsBySlug reports whether the owner has a newsletter with slug other than excludeID.
	// Deleted newsletters keep their slug reserved.
	ExistsBySlug(ctx context.Context, userID, slug, excludeID string) (bool, error)
	// Update writes name, slug and cadence fields. user_id is never written.
	Update(ctx context.Context, newsletter *domain.Newsletter) error
	// SoftDelete sets deleted_at once; a second call returns domain.ErrNewsletterNotFound
	SoftDelete(ctx context.Context, userID, id string, at time.Time) error
}
