package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewrecords/staff-records-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	userID := uuid.New()
	orgID := uuid.New()
	email := "operator@acme.org"

	token, err := jwtService.GenerateAccessToken(userID, orgID, email, []string{"hr_admin"})
	require.NoError(t, err)

	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		operator, exists := GetOperatorContext(c)
		require.True(t, exists)
		c.JSON(http.StatusOK, gin.H{
			"message":         "success",
			"organisation_id": operator.OrganisationID,
			"email":           operator.Email,
		})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
	assert.Contains(t, w.Body.String(), orgID.String())
	assert.Contains(t, w.Body.String(), email)
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	tests := []struct {
		name  string
		token string
	}{
		{"Malformed token", "invalid.token.here"},
		{"Random string", "randomstringnotavalidtoken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_token")
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	jwtService := setupTestJWTService()

	wrongService := jwt.NewService(
		"wrong-secret-key",
		"wrong-refresh-secret",
		time.Hour,
		24*time.Hour,
	)

	token, err := wrongService.GenerateAccessToken(uuid.New(), uuid.New(), "operator@acme.org", nil)
	require.NoError(t, err)

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
}

func TestGetOperatorContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Context exists", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expected := OperatorContext{
			UserID:         uuid.New(),
			OrganisationID: uuid.New(),
			Email:          "operator@acme.org",
			Roles:          []string{"hr_admin"},
		}
		c.Set(OperatorContextKey, expected)

		operator, exists := GetOperatorContext(c)
		assert.True(t, exists)
		assert.Equal(t, expected.UserID, operator.UserID)
		assert.Equal(t, expected.OrganisationID, operator.OrganisationID)
		assert.Equal(t, expected.Roles, operator.Roles)
	})

	t.Run("Context not found", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		operator, exists := GetOperatorContext(c)
		assert.False(t, exists)
		assert.Equal(t, OperatorContext{}, operator)
	})

	t.Run("Context wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(OperatorContextKey, "wrong type")
		operator, exists := GetOperatorContext(c)
		assert.False(t, exists)
		assert.Equal(t, OperatorContext{}, operator)
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := setupTestJWTService()
	userID := uuid.New()
	orgID := uuid.New()

	t.Run("Operator has required role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(userID, orgID, "operator@acme.org", []string{"hr_admin", "manager"})
		require.NoError(t, err)

		router := setupTestRouter()
		router.POST("/merge", AuthMiddleware(jwtService), RequireRole("hr_admin"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		req := httptest.NewRequest("POST", "/merge", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Operator lacks required role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(userID, orgID, "operator@acme.org", []string{"viewer"})
		require.NoError(t, err)

		router := setupTestRouter()
		router.POST("/merge", AuthMiddleware(jwtService), RequireRole("hr_admin"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		req := httptest.NewRequest("POST", "/merge", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("No operator context", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/merge", RequireRole("hr_admin"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		req := httptest.NewRequest("POST", "/merge", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestServiceKeyMiddleware(t *testing.T) {
	key := "external-sync-key"
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)

	newRouter := func(serviceKeyHash string) *gin.Engine {
		router := setupTestRouter()
		router.POST("/sync", ServiceKeyMiddleware(serviceKeyHash), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})
		return router
	}

	t.Run("Valid key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/sync", nil)
		req.Header.Set("X-Service-Key", key)
		w := httptest.NewRecorder()

		newRouter(string(hash)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Wrong key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/sync", nil)
		req.Header.Set("X-Service-Key", "not-the-key")
		w := httptest.NewRecorder()

		newRouter(string(hash)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/sync", nil)
		w := httptest.NewRecorder()

		newRouter(string(hash)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Not configured", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/sync", nil)
		req.Header.Set("X-Service-Key", key)
		w := httptest.NewRecorder()

		newRouter("").ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
