package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
)

// AuthMiddleware creates a middleware for JWT bearer authentication
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Authorization header format must be Bearer {token}")
			return
		}

		tokenString := parts[1]

		user, err := authService.GetUserFromToken(c.Request.Context(), tokenString)
		if err != nil || user == nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// AdminMiddleware creates a middleware for admin-only routes.
// It must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userObj, exists := c.Get("user")
		if !exists {
			abortUnauthorized(c, "User not found in context")
			return
		}

		user, ok := userObj.(*models.User)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Invalid user type in context",
				"code":    http.StatusInternalServerError,
			})
			c.Abort()
			return
		}

		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
				"code":    http.StatusForbidden,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ApplicationIDMiddleware rejects requests missing the static Application-Id header
func ApplicationIDMiddleware(applicationID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Application-Id") != applicationID {
			abortUnauthorized(c, "Invalid or missing Application-Id header")
			return
		}
		c.Next()
	}
}

// abortUnauthorized writes a 401 envelope and aborts the request
func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"code":    http.StatusUnauthorized,
	})
	c.Abort()
}
