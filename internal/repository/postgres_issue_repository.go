package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/jackc/pgx/v5"
)

// issueColumns defines the columns to select for issues, qualified for joins
const issueColumns = `i.id, i.newsletter_id, i.name, i.due_at, i.created_at, i.updated_at, i.deleted_at`

// PostgresIssueRepository implements IssueRepository using PostgreSQL
type PostgresIssueRepository struct {
	q pgQuerier
}

func scanPgIssue(row pgx.Row) (*domain.Issue, error) {
	issue := &domain.Issue{}
	err := row.Scan(
		&issue.ID,
		&issue.NewsletterID,
		&issue.Name,
		&issue.DueAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	issue.DueAt = issue.DueAt.UTC()
	issue.CreatedAt = issue.CreatedAt.UTC()
	issue.UpdatedAt = issue.UpdatedAt.UTC()
	issue.DeletedAt = utcPtr(issue.DeletedAt)
	return issue, nil
}

func (r *PostgresIssueRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Issue, error) {
	issue, err := scanPgIssue(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return issue, nil
}

func (r *PostgresIssueRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Issue, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isNoRows(err) {
			return []*domain.Issue{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	issues := make([]*domain.Issue, 0)
	for rows.Next() {
		issue, err := scanPgIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Create creates a new issue
func (r *PostgresIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	query := `
		INSERT INTO issues (id, newsletter_id, name, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, query,
		issue.ID,
		issue.NewsletterID,
		issue.Name,
		issue.DueAt,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	return err
}

// GetByID retrieves a live issue of a newsletter
func (r *PostgresIssueRepository) GetByID(ctx context.Context, newsletterID, id string) (*domain.Issue, error) {
	if !validIDs(newsletterID, id) {
		return nil, nil
	}
	query := `SELECT ` + issueColumns + `
		FROM issues i
		WHERE i.id = $1 AND i.newsletter_id = $2 AND i.deleted_at IS NULL`
	return r.getOne(ctx, query, id, newsletterID)
}

// FindLive retrieves an issue whose newsletter is live as well
func (r *PostgresIssueRepository) FindLive(ctx context.Context, id string) (*domain.Issue, error) {
	if !validIDs(id) {
		return nil, nil
	}
	query := `SELECT ` + issueColumns + `
		FROM issues i
		JOIN newsletters n ON n.id = i.newsletter_id
		WHERE i.id = $1 AND i.deleted_at IS NULL AND n.deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// ListByNewsletter lists live issues of a newsletter by due date
func (r *PostgresIssueRepository) ListByNewsletter(ctx context.Context, newsletterID string) ([]*domain.Issue, error) {
	if !validIDs(newsletterID) {
		return []*domain.Issue{}, nil
	}
	query := `SELECT ` + issueColumns + `
		FROM issues i
		WHERE i.newsletter_id = $1 AND i.deleted_at IS NULL
		ORDER BY i.due_at ASC, i.created_at ASC`
	return r.list(ctx, query, newsletterID)
}

// ListUpcomingBySlugs lists live issues due after now, earliest first
func (r *PostgresIssueRepository) ListUpcomingBySlugs(ctx context.Context, userSlug, newsletterSlug string, now time.Time) ([]*domain.Issue, error) {
	query := `SELECT ` + issueColumns + `
		FROM issues i
		JOIN newsletters n ON n.id = i.newsletter_id
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = $1 AND n.slug = $2
			AND n.deleted_at IS NULL AND i.deleted_at IS NULL
			AND i.due_at > $3
		ORDER BY i.due_at ASC, i.id ASC`
	return r.list(ctx, query, userSlug, newsletterSlug, now)
}

// Update updates an issue
func (r *PostgresIssueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	query := `
		UPDATE issues
		SET name = $3, due_at = $4, updated_at = $5
		WHERE id = $1 AND newsletter_id = $2 AND deleted_at IS NULL
	`
	result, err := r.q.Exec(ctx, query,
		issue.ID,
		issue.NewsletterID,
		issue.Name,
		issue.DueAt,
		issue.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrIssueNotFound
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// SoftDelete soft deletes an issue by setting deleted_at timestamp
func (r *PostgresIssueRepository) SoftDelete(ctx context.Context, newsletterID, id string, at time.Time) error {
	if !validIDs(newsletterID, id) {
		return domain.ErrIssueNotFound
	}
	query := `
		UPDATE issues
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND newsletter_id = $2 AND deleted_at IS NULL
	`
	result, err := r.q.Exec(ctx, query, id, newsletterID, at)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrIssueNotFound
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}
