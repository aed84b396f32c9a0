package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user id in the gin context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseBearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth stores the user id when a valid token is present and lets
// anonymous requests through untouched. Status reads use this so logged-out
// visitors still see counts.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := parseBearer(c); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0 for anonymous
// requests.
func CurrentUserID(c *gin.Context) int {
	if v, exists := c.Get(userIDKey); exists {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

func parseBearer(c *gin.Context) (int, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	// numeric claims decode as float64
	id, ok := claims[userIDKey].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return int(id), true
}
