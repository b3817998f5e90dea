package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Profiling tags CPU and allocation samples taken while a request is served
// with its method, route template and resource. Health checks are skipped.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelMethod:   c.Request.Method,
			telemetry.ProfilingLabelRoute:    route,
			telemetry.ProfilingLabelResource: routeResource(route),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// routeResource returns the first route segment after the api prefix and
// version, e.g. "cart" for /api/v1/cart/items/:id.
func routeResource(route string) string {
	for _, part := range strings.Split(strings.Trim(route, "/"), "/") {
		switch {
		case part == "" || part == "api":
			continue
		case len(part) > 1 && part[0] == 'v' && isDigits(part[1:]):
			continue
		case strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*"):
			return ""
		default:
			return part
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
