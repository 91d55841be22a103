package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/middleware"
	"github.com/AminArria/sponsorly/pkg/response"
)

// respondError writes the envelope matching a service error
func respondError(c *gin.Context, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(verr.Fields))
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, response.AlreadyConfirmed(""))
	case errors.Is(err, domain.ErrWindowClosed):
		c.JSON(http.StatusConflict, response.SlotClosed(""))
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidTransition, err.Error()))
	default:
		logger.Get().ErrorContext(c.Request.Context(), "request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.InternalError(""))
	}
}

// currentUser returns the authenticated user id or writes 401
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return "", false
	}
	return userID, true
}

// bindJSON decodes and validates the request body or writes 400.
// Failed binding rules are reported per field like service validation errors.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(dto.FieldErrors(fieldErrs).Fields))
		return false
	}
	c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
	return false
}
