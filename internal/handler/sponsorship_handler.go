package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/pkg/middleware"
	"github.com/AminArria/sponsorly/pkg/response"
)

// SponsorshipHandler handles sponsorship offer and confirmation requests
type SponsorshipHandler struct {
	sponsorshipService service.SponsorshipService
}

// NewSponsorshipHandler creates a new SponsorshipHandler
func NewSponsorshipHandler(sponsorshipService service.SponsorshipService) *SponsorshipHandler {
	return &SponsorshipHandler{sponsorshipService: sponsorshipService}
}

// Offer handles a sponsor's offer for an issue. The body is optional.
// POST /api/v1/issues/:issue_id/sponsorships
func (h *SponsorshipHandler) Offer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateOfferRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.sponsorshipService.Offer(c.Request.Context(), userID, c.Param("issue_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAuditResourceID(c, result.ID)
	c.JSON(http.StatusCreated, response.Success(result))
}

// Withdraw handles a sponsor withdrawing a pending offer
// DELETE /api/v1/sponsorships/:id
func (h *SponsorshipHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.sponsorshipService.Withdraw(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// ListOffers handles the owner's view of an issue's offers
// GET /api/v1/newsletters/:id/issues/:issue_id/sponsorships
func (h *SponsorshipHandler) ListOffers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.sponsorshipService.ListOffers(c.Request.Context(), userID, c.Param("id"), c.Param("issue_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Confirm handles the owner accepting an offer
// POST /api/v1/sponsorships/:id/confirm
func (h *SponsorshipHandler) Confirm(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.sponsorshipService.Confirm(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAuditMetadata(c, map[string]any{
		"issue_id":                 result.IssueID,
		"confirmed_sponsorship_id": result.ID,
	})
	c.JSON(http.StatusCreated, response.Success(result))
}

// GetConfirmed handles loading a confirmed sponsorship for editing
// GET /api/v1/confirmed-sponsorships/:id/edit
func (h *SponsorshipHandler) GetConfirmed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.sponsorshipService.GetConfirmed(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// UpdateConfirmed handles editing the ad copy
// PUT /api/v1/confirmed-sponsorships/:id
func (h *SponsorshipHandler) UpdateConfirmed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateConfirmedSponsorshipRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sponsorshipService.UpdateConfirmed(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// DeleteConfirmed handles the owner releasing an issue's slot
// DELETE /api/v1/confirmed-sponsorships/:id
func (h *SponsorshipHandler) DeleteConfirmed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.sponsorshipService.DeleteConfirmed(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message("Confirmed sponsorship deleted"))
}
