package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey         = "userId"
	AccessTokenCookie = "access_token"
)

type TokenValidator interface {
	ValidateAccess(token string) (uuid.UUID, error)
}

// AuthMiddleware accepts a Bearer header or the access_token cookie, the latter
// so that <video src> requests carry credentials.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
				return
			}
			accessToken = parts[1]
		} else if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
			accessToken = cookie
		}

		if accessToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		userID, err := validator.ValidateAccess(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, userID)

		c.Next()
	}
}

// CurrentUser returns the id set by AuthMiddleware.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
