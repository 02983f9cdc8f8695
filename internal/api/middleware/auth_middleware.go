package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UserIDKey               = "userID"
	UserRoleKey             = "userRole"
	UsernameKey             = "username"
)

type AuthMiddleware struct {
	authService *service.AuthService
	logger      *slog.Logger
}

func NewAuthMiddleware(authService *service.AuthService, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{authService: authService, logger: logger.With("component", "auth")}
}

// Authenticate validates the bearer token and stores its claims on the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "ไม่พบ authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "รูปแบบ authorization header ไม่ถูกต้อง"})
			return
		}

		claims, err := m.authService.ValidateToken(fields[1])
		if errors.Is(err, service.ErrAuthDisabled) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": service.ErrTokenInvalid.Error()})
			return
		}

		sub, okSub := claims["sub"].(string)
		role, okRole := claims["role"].(string)
		username, okUsername := claims["username"].(string)
		if !okSub || !okRole || !okUsername {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": service.ErrTokenInvalid.Error()})
			return
		}

		c.Set(UserIDKey, sub)
		c.Set(UserRoleKey, role)
		c.Set(UsernameKey, username)
		c.Next()
	}
}

// AuthorizeRole must run after Authenticate.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		if role == "" {
			m.logger.Warn("no role on request context", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "ไม่มีสิทธิ์เข้าถึง"})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		m.logger.Warn("role not allowed", "role", role, "required", requiredRoles, "path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "ไม่มีสิทธิ์เข้าถึง"})
	}
}
