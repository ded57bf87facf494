package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserRole returns the authenticated user's role or empty string.
func GetUserRole(c *gin.Context) string {
	if v, ok := c.Get("userRole"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetVisitorID returns the anonymous visitor's ID or empty string.
func GetVisitorID(c *gin.Context) string {
	if v, ok := c.Get("visitorID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetActor assembles the calling actor from the request context.
func GetActor(c *gin.Context) Actor {
	if userID := GetUserID(c); userID != "" {
		return Actor{UserID: userID}
	}
	return Actor{VisitorID: GetVisitorID(c)}
}
