package repository

import (
	"context"

	"github.com/AminArria/sponsorly/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user, returning domain.ErrUserAlreadyExists on a duplicate slug or email
	Create(ctx context.Context, user *domain.User) error
	// GetByID returns nil, nil when no user matches
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetBySlug returns nil, nil when no user matches
	GetBySlug(ctx context.Context, slug string) (*domain.User, error)
}
