package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// SQLiteSponsorshipRepository implements SponsorshipRepository using SQLite
type SQLiteSponsorshipRepository struct {
	q sqlQuerier
}

func scanSQLiteSponsorship(row sqlScanner) (*domain.Sponsorship, error) {
	var createdAt, updatedAt int64
	s := &domain.Sponsorship{}
	if err := row.Scan(&s.ID, &s.IssueID, &s.SponsorID, &s.Message, &s.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	return s, nil
}

func scanSQLiteConfirmed(row sqlScanner) (*domain.ConfirmedSponsorship, error) {
	var createdAt, updatedAt int64
	c := &domain.ConfirmedSponsorship{}
	err := row.Scan(&c.ID, &c.IssueID, &c.SponsorshipID, &c.SponsorID, &c.AdCopy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

// Create creates a new sponsorship offer
func (r *SQLiteSponsorshipRepository) Create(ctx context.Context, s *domain.Sponsorship) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sponsorships (id, issue_id, sponsor_id, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.IssueID, s.SponsorID, s.Message, string(s.Status), toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	return err
}

// GetByID retrieves an offer by ID
func (r *SQLiteSponsorshipRepository) GetByID(ctx context.Context, id string) (*domain.Sponsorship, error) {
	s, err := scanSQLiteSponsorship(r.q.QueryRowContext(ctx,
		`SELECT `+sponsorshipColumns+` FROM sponsorships WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByIssue lists the offers of an issue
func (r *SQLiteSponsorshipRepository) ListByIssue(ctx context.Context, issueID string) ([]*domain.Sponsorship, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+sponsorshipColumns+`
		FROM sponsorships
		WHERE issue_id = ?
		ORDER BY created_at ASC, id ASC`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]*domain.Sponsorship, 0)
	for rows.Next() {
		s, err := scanSQLiteSponsorship(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, s)
	}
	return offers, rows.Err()
}

// UpdateStatus performs a compare-and-set on the offer status
func (r *SQLiteSponsorshipRepository) UpdateStatus(ctx context.Context, id string, from, to domain.SponsorshipStatus, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE sponsorships SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), toMillis(at), id, string(from),
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrInvalidTransition)
}

// CreateConfirmed inserts a confirmation guarded by the unique issue_id constraint
func (r *SQLiteSponsorshipRepository) CreateConfirmed(ctx context.Context, c *domain.ConfirmedSponsorship) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO confirmed_sponsorships (id, issue_id, sponsorship_id, sponsor_id, ad_copy, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.IssueID, c.SponsorshipID, c.SponsorID, c.AdCopy, toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	if isSQLiteUniqueViolation(err, "confirmed_sponsorships.issue_id") {
		return domain.ErrAlreadyConfirmed
	}
	return err
}

// GetConfirmedByID retrieves a confirmation by ID
func (r *SQLiteSponsorshipRepository) GetConfirmedByID(ctx context.Context, id string) (*domain.ConfirmedSponsorship, error) {
	return scanSQLiteConfirmed(r.q.QueryRowContext(ctx,
		`SELECT `+confirmedColumns+` FROM confirmed_sponsorships WHERE id = ?`, id))
}

// GetConfirmedByIssue retrieves the confirmation of an issue
func (r *SQLiteSponsorshipRepository) GetConfirmedByIssue(ctx context.Context, issueID string) (*domain.ConfirmedSponsorship, error) {
	return scanSQLiteConfirmed(r.q.QueryRowContext(ctx,
		`SELECT `+confirmedColumns+` FROM confirmed_sponsorships WHERE issue_id = ?`, issueID))
}

// UpdateConfirmed updates the ad copy of a confirmation
func (r *SQLiteSponsorshipRepository) UpdateConfirmed(ctx context.Context, c *domain.ConfirmedSponsorship) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE confirmed_sponsorships SET ad_copy = ?, updated_at = ? WHERE id = ?`,
		c.AdCopy, toMillis(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrConfirmedSponsorshipNotFound)
}

// DeleteConfirmed removes a confirmation
func (r *SQLiteSponsorshipRepository) DeleteConfirmed(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM confirmed_sponsorships WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrConfirmedSponsorshipNotFound)
}
