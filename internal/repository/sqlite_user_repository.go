package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AminArria/sponsorly/internal/domain"
)

// SQLiteUserRepository implements UserRepository using SQLite
type SQLiteUserRepository struct {
	q sqlQuerier
}

func (r *SQLiteUserRepository) scanUser(row sqlScanner) (*domain.User, error) {
	var createdAt, updatedAt int64
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Slug, &user.Email, &user.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// Create creates a new user
func (r *SQLiteUserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, slug, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Slug, user.Email, user.Name, toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if isSQLiteUniqueViolation(err, "") {
		return domain.ErrUserAlreadyExists
	}
	return err
}

// GetByID retrieves a user by ID
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetBySlug retrieves a user by slug
func (r *SQLiteUserRepository) GetBySlug(ctx context.Context, slug string) (*domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE slug = ?`, slug))
}
