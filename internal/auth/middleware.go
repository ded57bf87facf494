package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VisitorHeader carries the anonymous visitor id generated client-side by
// the identity provider.
const VisitorHeader = "X-Visitor-ID"

// ActorResolver is a Gin middleware that resolves the calling actor.
// A valid Authorization: Bearer <token> wins; otherwise the anonymous
// visitor id header is used. Requests with neither are still let through;
// endpoints that need an identity enforce it themselves.
func ActorResolver(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid Authorization header format",
				})
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid or expired token",
				})
				return
			}

			c.Set("userID", claims.UserID)
			c.Set("userRole", claims.Role)
			c.Next()
			return
		}

		if visitorID := c.GetHeader(VisitorHeader); visitorID != "" {
			if _, err := uuid.Parse(visitorID); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "invalid visitor id",
				})
				return
			}
			c.Set("visitorID", visitorID)
		}

		c.Next()
	}
}

// AuthRequired rejects requests that do not carry an authenticated user.
// It MUST be used after ActorResolver.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// StaffRequired rejects requests whose token does not carry the staff role.
// It MUST be used after ActorResolver.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		if GetUserRole(c) != "staff" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "forbidden: staff access required",
			})
			return
		}
		c.Next()
	}
}
