package dto

import (
	"strings"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
)

// CreateNewsletterRequest represents request to create a newsletter.
// Numeric fields are pointers so a missing value can be told apart from 0.
type CreateNewsletterRequest struct {
	Name              string     `json:"name" binding:"required,max=200"`
	Slug              string     `json:"slug" binding:"required,slug,max=100"`
	IntervalDays      *int       `json:"interval_days" binding:"required,gt=0"`
	SponsorInDays     *int       `json:"sponsor_in_days" binding:"required,gte=0"`
	SponsorBeforeDays *int       `json:"sponsor_before_days" binding:"required,gte=0"`
	NextIssueAt       *time.Time `json:"next_issue_at" binding:"required"`
}

// Normalize trims surrounding whitespace from text fields
func (r *CreateNewsletterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
}

// Validate normalizes the request and checks its field rules.
// The sponsor window and slug uniqueness are checked by the service.
func (r *CreateNewsletterRequest) Validate() *domain.ValidationError {
	r.Normalize()
	return Validate(r)
}

// UpdateNewsletterRequest represents request to update a newsletter.
// The owner cannot be changed; a user_id in the body is ignored.
type UpdateNewsletterRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=200"`
	Slug              *string `json:"slug" binding:"omitempty,slug,max=100"`
	IntervalDays      *int    `json:"interval_days" binding:"omitempty,gt=0"`
	SponsorInDays     *int    `json:"sponsor_in_days" binding:"omitempty,gte=0"`
	SponsorBeforeDays *int    `json:"sponsor_before_days" binding:"omitempty,gte=0"`
}

// Normalize trims surrounding whitespace from the text fields that were sent
func (r *UpdateNewsletterRequest) Normalize() {
	trimPtr(r.Name)
	trimPtr(r.Slug)
}

// Validate normalizes the request and checks the fields that were sent
func (r *UpdateNewsletterRequest) Validate() *domain.ValidationError {
	r.Normalize()
	return Validate(r)
}

// NewsletterResponse represents newsletter data in response
type NewsletterResponse struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	Slug              string `json:"slug"`
	IntervalDays      int    `json:"interval_days"`
	SponsorInDays     int    `json:"sponsor_in_days"`
	SponsorBeforeDays int    `json:"sponsor_before_days"`
	NextIssueAt       string `json:"next_issue_at"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// CreateNewsletterResponse is returned after creation with the generated schedule
type CreateNewsletterResponse struct {
	Newsletter NewsletterResponse `json:"newsletter"`
	Issues     []IssueResponse    `json:"issues"`
}

// ToNewsletterResponse converts domain.Newsletter to NewsletterResponse
func ToNewsletterResponse(n *domain.Newsletter) NewsletterResponse {
	return NewsletterResponse{
		ID:                n.ID,
		UserID:            n.UserID,
		Name:              n.Name,
		Slug:              n.Slug,
		IntervalDays:      n.IntervalDays,
		SponsorInDays:     n.SponsorInDays,
		SponsorBeforeDays: n.SponsorBeforeDays,
		NextIssueAt:       FormatTime(n.NextIssueAt),
		CreatedAt:         FormatTime(n.CreatedAt),
		UpdatedAt:         FormatTime(n.UpdatedAt),
	}
}

// ToNewsletterResponses converts a slice of newsletters
func ToNewsletterResponses(newsletters []*domain.Newsletter) []NewsletterResponse {
	out := make([]NewsletterResponse, 0, len(newsletters))
	for _, n := range newsletters {
		out = append(out, ToNewsletterResponse(n))
	}
	return out
}

// FormatTime renders t as RFC3339 in UTC
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
