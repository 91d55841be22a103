package domain

import (
	"time"

	"github.com/AminArria/sponsorly/internal/schedule"
)

// Newsletter is a recurring publication owned by one user
type Newsletter struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Slug              string     `json:"slug"`
	IntervalDays      int        `json:"interval_days"`
	SponsorInDays     int        `json:"sponsor_in_days"`
	SponsorBeforeDays int        `json:"sponsor_before_days"`
	NextIssueAt       time.Time  `json:"next_issue_at"` // seeds the first issue at creation only
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the newsletter was soft deleted
func (n *Newsletter) IsDeleted() bool {
	return n.DeletedAt != nil
}

// WindowFor returns the sponsor window of an issue of this newsletter
func (n *Newsletter) WindowFor(issue *Issue) schedule.Window {
	return schedule.WindowFor(issue.DueAt, n.SponsorInDays, n.SponsorBeforeDays)
}
