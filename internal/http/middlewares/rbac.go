package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/gin-gonic/gin"
)

// Authorization is by role-name membership only. The permission tags a role
// carries are not consulted here.

// RequireSuperAdmin passes only the literal superadmin role. No case
// folding: "SuperAdmin" is not superadmin.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		if u.Role != role.SuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Access denied. Super admin role required.",
				},
			})
			return
		}
		c.Next()
	}
}

// RequireRole passes if the authenticated user's role is one of the given
// names.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))

	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		_, member := allowed[u.Role]

		if !member {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Access denied. Required roles: " + strings.Join(roles, ", "),
				},
			})
			return
		}
		c.Next()
	}
}
