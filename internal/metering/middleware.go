package metering

import (
	"github.com/gin-gonic/gin"
)

// Middleware attaches the usage tracker to every request context so the
// pipeline stages can record their calls.
func Middleware(tracker *UsageTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tracker != nil {
			c.Request = c.Request.WithContext(WithContext(c.Request.Context(), tracker))
		}
		c.Next()
	}
}
