package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AminArria/sponsorly/pkg/logger"
)

// ContextKeyRequestID is the gin key holding the request id
const ContextKeyRequestID = "request_id"

// RequestID propagates X-Request-ID, generating one when absent, and puts
// it on the request context so log lines carry it
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
