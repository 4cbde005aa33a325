package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates an incoming X-Request-ID or mints a new one, and
// attaches it to the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{RequestID: rid})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
