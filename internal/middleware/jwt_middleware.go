package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tirestore_api/internal/utils"
)

// Context keys set by JWTMiddleware.
const (
	AdminIDKey    = "admin_id"
	AdminEmailKey = "admin_email"
)

type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(AdminIDKey, claims.UserID)
		c.Set(AdminEmailKey, claims.Email)
		c.Next()
	}
}
