package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// SQLiteIssueRepository implements IssueRepository using SQLite
type SQLiteIssueRepository struct {
	q sqlQuerier
}

func scanSQLiteIssue(row sqlScanner) (*domain.Issue, error) {
	var dueAt, createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	issue := &domain.Issue{}
	err := row.Scan(
		&issue.ID,
		&issue.NewsletterID,
		&issue.Name,
		&dueAt,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}
	issue.DueAt = fromMillis(dueAt)
	issue.CreatedAt = fromMillis(createdAt)
	issue.UpdatedAt = fromMillis(updatedAt)
	issue.DeletedAt = fromNullMillis(deletedAt)
	return issue, nil
}

func (r *SQLiteIssueRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Issue, error) {
	issue, err := scanSQLiteIssue(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return issue, nil
}

func (r *SQLiteIssueRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Issue, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := make([]*domain.Issue, 0)
	for rows.Next() {
		issue, err := scanSQLiteIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Create creates a new issue
func (r *SQLiteIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO issues (id, newsletter_id, name, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		issue.ID,
		issue.NewsletterID,
		issue.Name,
		toMillis(issue.DueAt),
		toMillis(issue.CreatedAt),
		toMillis(issue.UpdatedAt),
	)
	return err
}

// GetByID retrieves a live issue of a newsletter
func (r *SQLiteIssueRepository) GetByID(ctx context.Context, newsletterID, id string) (*domain.Issue, error) {
	return r.getOne(ctx, `SELECT `+issueColumns+`
		FROM issues i
		WHERE i.id = ? AND i.newsletter_id = ? AND i.deleted_at IS NULL`, id, newsletterID)
}

// FindLive retrieves an issue whose newsletter is live as well
func (r *SQLiteIssueRepository) FindLive(ctx context.Context, id string) (*domain.Issue, error) {
	return r.getOne(ctx, `SELECT `+issueColumns+`
		FROM issues i
		JOIN newsletters n ON n.id = i.newsletter_id
		WHERE i.id = ? AND i.deleted_at IS NULL AND n.deleted_at IS NULL`, id)
}

// ListByNewsletter lists live issues of a newsletter by due date
func (r *SQLiteIssueRepository) ListByNewsletter(ctx context.Context, newsletterID string) ([]*domain.Issue, error) {
	return r.list(ctx, `SELECT `+issueColumns+`
		FROM issues i
		WHERE i.newsletter_id = ? AND i.deleted_at IS NULL
		ORDER BY i.due_at ASC, i.created_at ASC`, newsletterID)
}

// ListUpcomingBySlugs lists live issues due after now, earliest first
func (r *SQLiteIssueRepository) ListUpcomingBySlugs(ctx context.Context, userSlug, newsletterSlug string, now time.Time) ([]*domain.Issue, error) {
	return r.list(ctx, `SELECT `+issueColumns+`
		FROM issues i
		JOIN newsletters n ON n.id = i.newsletter_id
		JOIN users u ON u.id = n.user_id
		WHERE u.slug = ? AND n.slug = ?
			AND n.deleted_at IS NULL AND i.deleted_at IS NULL
			AND i.due_at > ?
		ORDER BY i.due_at ASC, i.id ASC`, userSlug, newsletterSlug, toMillis(now))
}

// Update updates an issue
func (r *SQLiteIssueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE issues
		SET name = ?, due_at = ?, updated_at = ?
		WHERE id = ? AND newsletter_id = ? AND deleted_at IS NULL`,
		issue.Name,
		toMillis(issue.DueAt),
		toMillis(issue.UpdatedAt),
		issue.ID,
		issue.NewsletterID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrIssueNotFound)
}

// SoftDelete soft deletes an issue by setting deleted_at timestamp
func (r *SQLiteIssueRepository) SoftDelete(ctx context.Context, newsletterID, id string, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE issues
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND newsletter_id = ? AND deleted_at IS NULL`,
		toMillis(at), toMillis(at), id, newsletterID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrIssueNotFound)
}
