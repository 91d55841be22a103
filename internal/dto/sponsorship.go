package dto

import (
	"strings"

	"github.com/AminArria/sponsorly/internal/domain"
)

// CreateOfferRequest represents a sponsor's offer for an issue
type CreateOfferRequest struct {
	Message string `json:"message" binding:"max=2000"`
}

// Validate checks the offer message
func (r *CreateOfferRequest) Validate() *domain.ValidationError {
	r.Message = strings.TrimSpace(r.Message)
	return Validate(r)
}

// UpdateConfirmedSponsorshipRequest represents request to edit ad copy
type UpdateConfirmedSponsorshipRequest struct {
	AdCopy *string `json:"ad_copy" binding:"required,max=5000"`
}

// Validate checks the ad copy
func (r *UpdateConfirmedSponsorshipRequest) Validate() *domain.ValidationError {
	return Validate(r)
}

// SponsorshipResponse represents an offer in response
type SponsorshipResponse struct {
	ID        string `json:"id"`
	IssueID   string `json:"issue_id"`
	SponsorID string `json:"sponsor_id"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ToSponsorshipResponse converts domain.Sponsorship to SponsorshipResponse
func ToSponsorshipResponse(s *domain.Sponsorship) SponsorshipResponse {
	return SponsorshipResponse{
		ID:        s.ID,
		IssueID:   s.IssueID,
		SponsorID: s.SponsorID,
		Message:   s.Message,
		Status:    string(s.Status),
		CreatedAt: FormatTime(s.CreatedAt),
		UpdatedAt: FormatTime(s.UpdatedAt),
	}
}

// IssueOffersResponse lists the offers of an issue with the derived slot state
type IssueOffersResponse struct {
	IssueID   string                        `json:"issue_id"`
	SlotState string                        `json:"slot_state"`
	Offers    []SponsorshipResponse         `json:"offers"`
	Confirmed *ConfirmedSponsorshipResponse `json:"confirmed,omitempty"`
}

// ConfirmedSponsorshipResponse represents a confirmed sponsorship in response
type ConfirmedSponsorshipResponse struct {
	ID            string `json:"id"`
	IssueID       string `json:"issue_id"`
	SponsorshipID string `json:"sponsorship_id"`
	SponsorID     string `json:"sponsor_id"`
	AdCopy        string `json:"ad_copy"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ToConfirmedSponsorshipResponse converts domain.ConfirmedSponsorship
func ToConfirmedSponsorshipResponse(c *domain.ConfirmedSponsorship) ConfirmedSponsorshipResponse {
	return ConfirmedSponsorshipResponse{
		ID:            c.ID,
		IssueID:       c.IssueID,
		SponsorshipID: c.SponsorshipID,
		SponsorID:     c.SponsorID,
		AdCopy:        c.AdCopy,
		CreatedAt:     FormatTime(c.CreatedAt),
		UpdatedAt:     FormatTime(c.UpdatedAt),
	}
}
