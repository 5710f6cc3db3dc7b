package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gescom/backend/internal/domain/identity"
	"github.com/gescom/backend/internal/infrastructure/auth"
	"github.com/gescom/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware-tests",
		AccessTokenExpiration: time.Hour,
		Issuer:                "gescom-test",
	})
}

func issueTestToken(t *testing.T, svc *auth.JWTService, role identity.Role) string {
	t.Helper()
	user, err := identity.NewUser("amina", "amina@example.dz", "S3curePass!", role)
	require.NoError(t, err)
	token, _, err := svc.Issue(user)
	require.NoError(t, err)
	return token
}

func newAuthTestRouter(svc *auth.JWTService) *gin.Engine {
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(svc))
	engine.GET("/api/v1/customers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetJWTUserID(c),
			"username": GetJWTUsername(c),
			"role":     string(GetJWTRole(c)),
		})
	})
	engine.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "public"})
	})
	engine.GET("/api/v1/deliveries/track/*number", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"delivery_number": c.Param("number")})
	})
	return engine
}

func TestJWTAuthMiddlewareValidToken(t *testing.T) {
	svc := newTestJWTService(t)
	engine := newAuthTestRouter(svc)
	token := issueTestToken(t, svc, identity.RoleManager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/customers", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "amina")
	assert.Contains(t, w.Body.String(), "manager")
}

func TestJWTAuthMiddlewareMissingHeader(t *testing.T) {
	svc := newTestJWTService(t)
	engine := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/customers", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuthMiddlewareMalformedHeader(t *testing.T) {
	svc := newTestJWTService(t)
	engine := newAuthTestRouter(svc)

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "some-token"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/v1/customers", nil)
			req.Header.Set(AuthHeaderKey, tt.header)
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestJWTAuthMiddlewareExpiredToken(t *testing.T) {
	expiredSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware-tests",
		AccessTokenExpiration: -time.Hour,
		Issuer:                "gescom-test",
	})
	engine := newAuthTestRouter(newTestJWTService(t))
	token := issueTestToken(t, expiredSvc, identity.RoleCashier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/customers", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTAuthMiddlewareSkipPaths(t *testing.T) {
	svc := newTestJWTService(t)
	engine := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddlewareSkipPrefixes(t *testing.T) {
	svc := newTestJWTService(t)
	engine := newAuthTestRouter(svc)

	// delivery tracking is public, no Authorization header
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/deliveries/track/BL2026/00030", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireWrite(t *testing.T) {
	svc := newTestJWTService(t)

	newEngine := func() *gin.Engine {
		engine := gin.New()
		engine.Use(JWTAuthMiddleware(svc))
		engine.POST("/api/v1/invoices", RequireWrite(), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		engine.DELETE("/api/v1/customers/x", RequireManage(), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return engine
	}

	tests := []struct {
		name     string
		method   string
		path     string
		role     identity.Role
		expected int
	}{
		{"cashier can write", "POST", "/api/v1/invoices", identity.RoleCashier, http.StatusCreated},
		{"viewer cannot write", "POST", "/api/v1/invoices", identity.RoleViewer, http.StatusForbidden},
		{"admin can manage", "DELETE", "/api/v1/customers/x", identity.RoleAdmin, http.StatusNoContent},
		{"cashier cannot manage", "DELETE", "/api/v1/customers/x", identity.RoleCashier, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := issueTestToken(t, svc, tt.role)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+token)
			newEngine().ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
