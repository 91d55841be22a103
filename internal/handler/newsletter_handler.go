package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/pkg/response"
)

// NewsletterHandler handles newsletter HTTP requests
type NewsletterHandler struct {
	newsletterService service.NewsletterService
}

// NewNewsletterHandler creates a new NewsletterHandler
func NewNewsletterHandler(newsletterService service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletterService}
}

// List handles listing the caller's newsletters
// GET /api/v1/newsletters
func (h *NewsletterHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.newsletterService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(result, len(result)))
}

// Create handles newsletter creation along with its first issues
// POST /api/v1/newsletters
func (h *NewsletterHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateNewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.newsletterService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// Get handles retrieving one of the caller's newsletters
// GET /api/v1/newsletters/:id
func (h *NewsletterHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.newsletterService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles newsletter update
// PUT /api/v1/newsletters/:id
func (h *NewsletterHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateNewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.newsletterService.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles newsletter soft deletion
// DELETE /api/v1/newsletters/:id
func (h *NewsletterHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.newsletterService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message("Newsletter deleted"))
}

// ListPublic handles listing a user's newsletters by slug
// GET /api/v1/u/:user_slug/newsletters
func (h *NewsletterHandler) ListPublic(c *gin.Context) {
	result, err := h.newsletterService.ListBySlug(c.Request.Context(), c.Param("user_slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(result, len(result)))
}

// GetPublic handles retrieving a newsletter by user and newsletter slug
// GET /api/v1/u/:user_slug/newsletters/:newsletter_slug
func (h *NewsletterHandler) GetPublic(c *gin.Context) {
	result, err := h.newsletterService.GetBySlugs(c.Request.Context(), c.Param("user_slug"), c.Param("newsletter_slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
