package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/pkg/response"
)

// IssueHandler handles issue HTTP requests
type IssueHandler struct {
	issueService service.IssueService
}

// NewIssueHandler creates a new IssueHandler
func NewIssueHandler(issueService service.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

// List handles listing the issues of one of the caller's newsletters
// GET /api/v1/newsletters/:id/issues
func (h *IssueHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.issueService.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(result, len(result)))
}

// Create handles adding an issue
// POST /api/v1/newsletters/:id/issues
func (h *IssueHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.issueService.Create(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// Get handles retrieving an issue with its sponsor window
// GET /api/v1/newsletters/:id/issues/:issue_id
func (h *IssueHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.issueService.Get(c.Request.Context(), userID, c.Param("id"), c.Param("issue_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles issue update
// PUT /api/v1/newsletters/:id/issues/:issue_id
func (h *IssueHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.issueService.Update(c.Request.Context(), userID, c.Param("id"), c.Param("issue_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles issue soft deletion
// DELETE /api/v1/newsletters/:id/issues/:issue_id
func (h *IssueHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.issueService.Delete(c.Request.Context(), userID, c.Param("id"), c.Param("issue_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message("Issue deleted"))
}

// ListPublic handles listing upcoming issues of a newsletter by slugs
// GET /api/v1/u/:user_slug/newsletters/:newsletter_slug/issues
func (h *IssueHandler) ListPublic(c *gin.Context) {
	result, err := h.issueService.ListPublic(c.Request.Context(), c.Param("user_slug"), c.Param("newsletter_slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(result, len(result)))
}
