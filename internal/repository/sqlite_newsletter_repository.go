package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// SQLiteNewsletterRepository implements NewsletterRepository using SQLite
type SQLiteNewsletterRepository struct {
	q sqlQuerier
}

func scanSQLiteNewsletter(row sqlScanner) (*domain.Newsletter, error) {
	var nextIssueAt, createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	n := &domain.Newsletter{}
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Name,
		&n.Slug,
		&n.IntervalDays,
		&n.SponsorInDays,
		&n.SponsorBeforeDays,
		&nextIssueAt,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}
	n.NextIssueAt = fromMillis(nextIssueAt)
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	n.DeletedAt = fromNullMillis(deletedAt)
	return n, nil
}

func (r *SQLiteNewsletterRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Newsletter, error) {
	n, err := scanSQLiteNewsletter(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (r *SQLiteNewsletterRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Newsletter, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	newsletters := make([]*domain.Newsletter, 0)
	for rows.Next() {
		n, err := scanSQLiteNewsletter(rows)
		if err != nil {
			return nil, err
		}
		newsletters = append(newsletters, n)
	}
	return newsletters, rows.Err()
}

// Create creates a new newsletter
func (r *SQLiteNewsletterRepository) Create(ctx context.Context, n *domain.Newsletter) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO newsletters (id, user_id, name, slug, interval_days, sponsor_in_days,
			sponsor_before_days, next_issue_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		n.Name,
		n.Slug,
		n.IntervalDays,
		n.SponsorInDays,
		n.SponsorBeforeDays,
		toMillis(n.NextIssueAt),
		toMillis(n.CreatedAt),
		toMillis(n.UpdatedAt),
	)
	if isSQLiteUniqueViolation(err, "newsletters.slug") {
		return domain.ErrSlugTaken
	}
	return err
}

// GetByID retrieves a live newsletter owned by userID
func (r *SQLiteNewsletterRepository) GetByID(ctx context.Context, userID, id string) (*domain.Newsletter, error) {
	return r.getOne(ctx, `SELECT `+newsletterColumns+`
		FROM newsletters n
		WHERE n.id = ? AND n.user_id = ? AND n.deleted_at IS NULL`, id, userID)
}

// FindLive retrieves a live newsletter regardless of owner
func (r *SQLiteNewsletterRepository) FindLive(ctx context.Context, id string) (*domain.Newsletter, error) {
	return r.getOne(ctx, `SELECT `+newsletterColumns+`
		FROM newsletters n
		WHERE n.id = ? AND n.deleted_at IS NULL`, id)
}

// GetBySlugs retrieves a live newsletter by owner slug and newsletter slug
func (r *SQLiteNewsletterRepository) GetBySlugs(ctx context.Context, userSlug, newsletterSlug string) (*domain.Newsletter, error) {
	return r.getOne(ctx, `SELECT `+newsletterColumns+`
		FROM newsletters n
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = ? AND n.slug = ? AND n.deleted_at IS NULL`, userSlug, newsletterSlug)
}

// ListByUser lists live newsletters of a user
func (r *SQLiteNewsletterRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Newsletter, error) {
	return r.list(ctx, `SELECT `+newsletterColumns+`
		FROM newsletters n
		WHERE n.user_id = ? AND n.deleted_at IS NULL
		ORDER BY n.created_at ASC, n.id ASC`, userID)
}

// ListByUserSlug lists live newsletters of the user with the given slug
func (r *SQLiteNewsletterRepository) ListByUserSlug(ctx context.Context, userSlug string) ([]*domain.Newsletter, error) {
	return r.list(ctx, `SELECT `+newsletterColumns+`
		FROM newsletters n
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = ? AND n.deleted_at IS NULL
		ORDER BY n.created_at ASC, n.id ASC`, userSlug)
}

// ExistsBySlug checks whether the owner already uses slug
func (r *SQLiteNewsletterRepository) ExistsBySlug(ctx context.Context, userID, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM newsletters WHERE user_id = ? AND slug = ? AND id <> ?)`,
		userID, slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// Update updates a newsletter
func (r *SQLiteNewsletterRepository) Update(ctx context.Context, n *domain.Newsletter) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE newsletters
		SET name = ?, slug = ?, interval_days = ?, sponsor_in_days = ?,
			sponsor_before_days = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		n.Name,
		n.Slug,
		n.IntervalDays,
		n.SponsorInDays,
		n.SponsorBeforeDays,
		toMillis(n.UpdatedAt),
		n.ID,
		n.UserID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err, "newsletters.slug") {
			return domain.ErrSlugTaken
		}
		return err
	}
	return requireAffected(result, domain.ErrNewsletterNotFound)
}

// SoftDelete soft deletes a newsletter by setting deleted_at timestamp
func (r *SQLiteNewsletterRepository) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE newsletters
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		toMillis(at), toMillis(at), id, userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrNewsletterNotFound)
}

// requireAffected returns notFound when the statement touched no row
func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
