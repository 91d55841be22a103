package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/jackc/pgx/v5"
)

const newsletterSlugConstraint = "newsletters_user_id_slug_key"

// newsletterColumns defines the columns to select for newsletters, qualified for joins
const newsletterColumns = `n.id, n.user_id, n.name, n.slug, n.interval_days, n.sponsor_in_days,
	n.sponsor_before_days, n.next_issue_at, n.created_at, n.updated_at, n.deleted_at`

// PostgresNewsletterRepository implements NewsletterRepository using PostgreSQL
type PostgresNewsletterRepository struct {
	q pgQuerier
}

func scanPgNewsletter(row pgx.Row) (*domain.Newsletter, error) {
	n := &domain.Newsletter{}
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Name,
		&n.Slug,
		&n.IntervalDays,
		&n.SponsorInDays,
		&n.SponsorBeforeDays,
		&n.NextIssueAt,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	n.NextIssueAt = n.NextIssueAt.UTC()
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	n.DeletedAt = utcPtr(n.DeletedAt)
	return n, nil
}

func (r *PostgresNewsletterRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Newsletter, error) {
	n, err := scanPgNewsletter(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (r *PostgresNewsletterRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Newsletter, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isNoRows(err) {
			return []*domain.Newsletter{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	newsletters := make([]*domain.Newsletter, 0)
	for rows.Next() {
		n, err := scanPgNewsletter(rows)
		if err != nil {
			return nil, err
		}
		newsletters = append(newsletters, n)
	}
	return newsletters, rows.Err()
}

// Create creates a new newsletter
func (r *PostgresNewsletterRepository) Create(ctx context.Context, n *domain.Newsletter) error {
	query := `
		INSERT INTO newsletters (id, user_id, name, slug, interval_days, sponsor_in_days,
			sponsor_before_days, next_issue_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Name,
		n.Slug,
		n.IntervalDays,
		n.SponsorInDays,
		n.SponsorBeforeDays,
		n.NextIssueAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if isPgUniqueViolation(err, newsletterSlugConstraint) {
		return domain.ErrSlugTaken
	}
	return err
}

// GetByID retrieves a live newsletter owned by userID
func (r *PostgresNewsletterRepository) GetByID(ctx context.Context, userID, id string) (*domain.Newsletter, error) {
	if !validIDs(userID, id) {
		return nil, nil
	}
	query := `SELECT ` + newsletterColumns + `
		FROM newsletters n
		WHERE n.id = $1 AND n.user_id = $2 AND n.deleted_at IS NULL`
	return r.getOne(ctx, query, id, userID)
}

// FindLive retrieves a live newsletter regardless of owner
func (r *PostgresNewsletterRepository) FindLive(ctx context.Context, id string) (*domain.Newsletter, error) {
	if !validIDs(id) {
		return nil, nil
	}
	query := `SELECT ` + newsletterColumns + `
		FROM newsletters n
		WHERE n.id = $1 AND n.deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetBySlugs retrieves a live newsletter by owner slug and newsletter slug
func (r *PostgresNewsletterRepository) GetBySlugs(ctx context.Context, userSlug, newsletterSlug string) (*domain.Newsletter, error) {
	query := `SELECT ` + newsletterColumns + `
		FROM newsletters n
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = $1 AND n.slug = $2 AND n.deleted_at IS NULL`
	return r.getOne(ctx, query, userSlug, newsletterSlug)
}

// ListByUser lists live newsletters of a user
func (r *PostgresNewsletterRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Newsletter, error) {
	if !validIDs(userID) {
		return []*domain.Newsletter{}, nil
	}
	query := `SELECT ` + newsletterColumns + `
		FROM newsletters n
		WHERE n.user_id = $1 AND n.deleted_at IS NULL
		ORDER BY n.created_at ASC, n.id ASC`
	return r.list(ctx, query, userID)
}

// ListByUserSlug lists live newsletters of the user with the given slug
func (r *PostgresNewsletterRepository) ListByUserSlug(ctx context.Context, userSlug string) ([]*domain.Newsletter, error) {
	query := `SELECT ` + newsletterColumns + `
		FROM newsletters n
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = $1 AND n.deleted_at IS NULL
		ORDER BY n.created_at ASC, n.id ASC`
	return r.list(ctx, query, userSlug)
}

// ExistsBySlug checks whether the owner already uses slug
func (r *PostgresNewsletterRepository) ExistsBySlug(ctx context.Context, userID, slug, excludeID string) (bool, error) {
	if !validIDs(userID) {
		return false, nil
	}
	query := `SELECT EXISTS(SELECT 1 FROM newsletters WHERE user_id = $1 AND slug = $2 AND id::text <> $3)`
	var exists bool
	err := r.q.QueryRow(ctx, query, userID, slug, excludeID).Scan(&exists)
	if isNoRows(err) {
		return false, nil
	}
	return exists, err
}

// Update updates a newsletter
func (r *PostgresNewsletterRepository) Update(ctx context.Context, n *domain.Newsletter) error {
	query := `
		UPDATE newsletters
		SET name = $3, slug = $4, interval_days = $5, sponsor_in_days = $6,
			sponsor_before_days = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := r.q.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Name,
		n.Slug,
		n.IntervalDays,
		n.SponsorInDays,
		n.SponsorBeforeDays,
		n.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err, newsletterSlugConstraint) {
			return domain.ErrSlugTaken
		}
		if isNoRows(err) {
			return domain.ErrNewsletterNotFound
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNewsletterNotFound
	}
	return nil
}

// SoftDelete soft deletes a newsletter by setting deleted_at timestamp
func (r *PostgresNewsletterRepository) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	if !validIDs(userID, id) {
		return domain.ErrNewsletterNotFound
	}
	query := `
		UPDATE newsletters
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := r.q.Exec(ctx, query, id, userID, at)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrNewsletterNotFound
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNewsletterNotFound
	}
	return nil
}
