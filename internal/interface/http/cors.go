package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = "600"

// corsMiddleware lets the browser frontend call the API and open event streams.
// Requests from origins outside allowed get no CORS headers.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			wildcard = true
			continue
		}
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Add("Vary", "Origin")
		if origin, ok := matchOrigin(c.GetHeader("Origin"), origins, wildcard); ok {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+devUserHeader)
			headers.Set("Access-Control-Max-Age", corsMaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func matchOrigin(requestOrigin string, origins map[string]struct{}, wildcard bool) (string, bool) {
	if wildcard {
		return "*", true
	}
	if requestOrigin == "" {
		return "", false
	}
	if _, ok := origins[strings.ToLower(strings.TrimRight(requestOrigin, "/"))]; ok {
		return requestOrigin, true
	}
	return "", false
}
