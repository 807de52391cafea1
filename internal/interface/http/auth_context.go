package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/jobfit/internal/domain/auth"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// requireUser returns the caller's user id or aborts with 401.
func requireUser(c *gin.Context) (string, bool) {
	claims, ok := getClaims(c)
	if !ok || claims.UserID == "" {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return "", false
	}
	return claims.UserID, true
}
