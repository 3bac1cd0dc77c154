package middleware

import (
	"context"

	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingLabels runs the rest of the chain under route and method
// profiling labels. Unmatched routes are left unlabelled.
func ProfilingLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), telemetry.HTTPRequestLabels(route, c.Request.Method),
			func(ctx context.Context) {
				c.Request = c.Request.WithContext(ctx)
				c.Next()
			})
	}
}
