package repository

import (
	"context"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/jackc/pgx/v5"
)

const confirmedIssueConstraint = "confirmed_sponsorships_issue_id_key"

const (
	sponsorshipColumns = `id, issue_id, sponsor_id, message, status, created_at, updated_at`
	confirmedColumns   = `id, issue_id, sponsorship_id, sponsor_id, ad_copy, created_at, updated_at`
)

// PostgresSponsorshipRepository implements SponsorshipRepository using PostgreSQL
type PostgresSponsorshipRepository struct {
	q pgQuerier
}

func scanPgSponsorship(row pgx.Row) (*domain.Sponsorship, error) {
	s := &domain.Sponsorship{}
	err := row.Scan(
		&s.ID,
		&s.IssueID,
		&s.SponsorID,
		&s.Message,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func scanPgConfirmed(row pgx.Row) (*domain.ConfirmedSponsorship, error) {
	c := &domain.ConfirmedSponsorship{}
	err := row.Scan(
		&c.ID,
		&c.IssueID,
		&c.SponsorshipID,
		&c.SponsorID,
		&c.AdCopy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// Create creates a new sponsorship offer
func (r *PostgresSponsorshipRepository) Create(ctx context.Context, s *domain.Sponsorship) error {
	query := `
		INSERT INTO sponsorships (id, issue_id, sponsor_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		s.ID,
		s.IssueID,
		s.SponsorID,
		s.Message,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

// GetByID retrieves an offer by ID
func (r *PostgresSponsorshipRepository) GetByID(ctx context.Context, id string) (*domain.Sponsorship, error) {
	if !validIDs(id) {
		return nil, nil
	}
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE id = $1`
	s, err := scanPgSponsorship(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByIssue lists the offers of an issue
func (r *PostgresSponsorshipRepository) ListByIssue(ctx context.Context, issueID string) ([]*domain.Sponsorship, error) {
	if !validIDs(issueID) {
		return []*domain.Sponsorship{}, nil
	}
	query := `SELECT ` + sponsorshipColumns + `
		FROM sponsorships
		WHERE issue_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]*domain.Sponsorship, 0)
	for rows.Next() {
		s, err := scanPgSponsorship(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, s)
	}
	return offers, rows.Err()
}

// UpdateStatus performs a compare-and-set on the offer status
func (r *PostgresSponsorshipRepository) UpdateStatus(ctx context.Context, id string, from, to domain.SponsorshipStatus, at time.Time) error {
	query := `
		UPDATE sponsorships
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`
	result, err := r.q.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// CreateConfirmed inserts a confirmation guarded by the unique issue_id constraint
func (r *PostgresSponsorshipRepository) CreateConfirmed(ctx context.Context, c *domain.ConfirmedSponsorship) error {
	query := `
		INSERT INTO confirmed_sponsorships (id, issue_id, sponsorship_id, sponsor_id, ad_copy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		c.ID,
		c.IssueID,
		c.SponsorshipID,
		c.SponsorID,
		c.AdCopy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if isPgUniqueViolation(err, confirmedIssueConstraint) {
		return domain.ErrAlreadyConfirmed
	}
	return err
}

// GetConfirmedByID retrieves a confirmation by ID
func (r *PostgresSponsorshipRepository) GetConfirmedByID(ctx context.Context, id string) (*domain.ConfirmedSponsorship, error) {
	if !validIDs(id) {
		return nil, nil
	}
	query := `SELECT ` + confirmedColumns + ` FROM confirmed_sponsorships WHERE id = $1`
	return scanPgConfirmed(r.q.QueryRow(ctx, query, id))
}

// GetConfirmedByIssue retrieves the confirmation of an issue
func (r *PostgresSponsorshipRepository) GetConfirmedByIssue(ctx context.Context, issueID string) (*domain.ConfirmedSponsorship, error) {
	if !validIDs(issueID) {
		return nil, nil
	}
	query := `SELECT ` + confirmedColumns + ` FROM confirmed_sponsorships WHERE issue_id = $1`
	return scanPgConfirmed(r.q.QueryRow(ctx, query, issueID))
}

// UpdateConfirmed updates the ad copy of a confirmation
func (r *PostgresSponsorshipRepository) UpdateConfirmed(ctx context.Context, c *domain.ConfirmedSponsorship) error {
	query := `UPDATE confirmed_sponsorships SET ad_copy = $2, updated_at = $3 WHERE id = $1`
	result, err := r.q.Exec(ctx, query, c.ID, c.AdCopy, c.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrConfirmedSponsorshipNotFound
	}
	return nil
}

// DeleteConfirmed removes a confirmation
func (r *PostgresSponsorshipRepository) DeleteConfirmed(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM confirmed_sponsorships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrConfirmedSponsorshipNotFound
	}
	return nil
}
