package repository

import (
	"context"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, slug, email, name, created_at, updated_at`

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	q pgQuerier
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Slug,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, slug, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, query,
		user.ID,
		user.Slug,
		user.Email,
		user.Name,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isPgUniqueViolation(err, "") {
		return domain.ErrUserAlreadyExists
	}
	return err
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validIDs(id) {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRow(ctx, query, id))
}

// GetBySlug retrieves a user by slug
func (r *PostgresUserRepository) GetBySlug(ctx context.Context, slug string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE slug = $1`
	return r.scanUser(r.q.QueryRow(ctx, query, slug))
}
