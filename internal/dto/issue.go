package dto

import (
	"strings"
	"time"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/schedule"
)

// CreateIssueRequest represents request to add an issue to a newsletter
type CreateIssueRequest struct {
	Name  string     `json:"name" binding:"required,max=200"`
	DueAt *time.Time `json:"due_at" binding:"required"`
}

// Validate trims the name and checks required fields
func (r *CreateIssueRequest) Validate() *domain.ValidationError {
	r.Name = strings.TrimSpace(r.Name)
	return Validate(r)
}

// UpdateIssueRequest represents request to update an issue.
// The newsletter cannot be changed; a newsletter_id in the body is ignored.
type UpdateIssueRequest struct {
	Name  *string    `json:"name" binding:"omitempty,min=1,max=200"`
	DueAt *time.Time `json:"due_at"`
}

// Validate rejects a name that was sent blank
func (r *UpdateIssueRequest) Validate() *domain.ValidationError {
	trimPtr(r.Name)
	return Validate(r)
}

// IssueResponse represents issue data in response
type IssueResponse struct {
	ID           string          `json:"id"`
	NewsletterID string          `json:"newsletter_id"`
	Name         string          `json:"name"`
	DueAt        string          `json:"due_at"`
	Window       *WindowResponse `json:"window,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// WindowResponse describes when an issue can be sponsored
type WindowResponse struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	IsOpen   bool   `json:"is_open"`
}

// ToIssueResponse converts domain.Issue to IssueResponse
func ToIssueResponse(i *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:           i.ID,
		NewsletterID: i.NewsletterID,
		Name:         i.Name,
		DueAt:        FormatTime(i.DueAt),
		CreatedAt:    FormatTime(i.CreatedAt),
		UpdatedAt:    FormatTime(i.UpdatedAt),
	}
}

// ToIssueResponses converts issues, attaching each sponsor window when n is set
func ToIssueResponses(issues []*domain.Issue, n *domain.Newsletter, now time.Time) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for _, i := range issues {
		resp := ToIssueResponse(i)
		if n != nil {
			resp.Window = ToWindowResponse(n.WindowFor(i), now)
		}
		out = append(out, resp)
	}
	return out
}

// ToWindowResponse converts a schedule.Window as seen at now
func ToWindowResponse(w schedule.Window, now time.Time) *WindowResponse {
	return &WindowResponse{
		OpensAt:  FormatTime(w.OpensAt),
		ClosesAt: FormatTime(w.Deadline()),
		IsOpen:   w.IsOpen(now),
	}
}
