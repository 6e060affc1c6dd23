package middleware

import (
	"net/http"
	"strings"

	"github.com/crewrecords/staff-records-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OperatorContextKey is the key used to store operator information in Gin context
const OperatorContextKey = "operator"

// OperatorContext represents the authenticated operator's identity and the
// organisation scope that must accompany every core call
type OperatorContext struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
}

// AuthMiddleware creates a middleware that validates JWT tokens and places
// the operator context on the request
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid or expired access token",
			})
			c.Abort()
			return
		}

		c.Set(OperatorContextKey, OperatorContext{
			UserID:         claims.UserID,
			OrganisationID: claims.OrganisationID,
			Email:          claims.Email,
			Roles:          claims.Roles,
		})

		c.Next()
	}
}

// GetOperatorContext retrieves the operator context set by AuthMiddleware
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}
	operator, ok := value.(OperatorContext)
	return operator, ok
}

// RequireRole creates a middleware that checks if the operator has one of the
// required roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, exists := GetOperatorContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Operator context not found",
			})
			c.Abort()
			return
		}

		for _, required := range roles {
			for _, held := range operator.Roles {
				if held == required {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Insufficient permissions",
		})
		c.Abort()
	}
}

// ServiceKeyMiddleware authenticates external sync callers by comparing the
// X-Service-Key header against a bcrypt hash from configuration. An empty
// hash disables the endpoints it guards.
func ServiceKeyMiddleware(serviceKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKeyHash == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Service access is not configured",
			})
			c.Abort()
			return
		}

		key := c.GetHeader("X-Service-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(serviceKeyHash), []byte(key)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid service key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
