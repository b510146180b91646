package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-feed/internal/auth"
)

// Context keys under which the authenticated principal is stored.
const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
)

// requireAuth extracts and verifies the bearer token, attaching the
// decoded principal to the request context.
//
// A verification failure responds 401. The system this reimplements mapped
// that case to 500; that was a defect and is deliberately not preserved.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated", "data": nil})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated", "data": nil})
			return
		}

		claims, err := auth.ParseToken(parts[1], h.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated", "data": nil})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Next()
	}
}
