package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/callassist/internal/utils"
)

// RequireRole admits requests whose "role" (set by JWTAuth) is one of
// allowed. Comparison ignores case and surrounding space.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		if a = normalizeRole(a); a != "" {
			allow[a] = true
		}
	}

	return func(c *gin.Context) {
		if !allow[normalizeRole(c.GetString("role"))] {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "role not permitted",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin guards lexicon and other operator endpoints.
func RequireAdmin() gin.HandlerFunc { return RequireRole("admin") }

func normalizeRole(r string) string { return strings.ToLower(strings.TrimSpace(r)) }
