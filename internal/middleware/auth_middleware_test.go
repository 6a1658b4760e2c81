package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatmart/goatmart-backend/pkg/util"
)

const testJWTSecret = "test-secret"

func setupAuthMiddlewareTest(t *testing.T) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	return gin.New(), NewAuthMiddleware(testJWTSecret)
}

func issueToken(t *testing.T, userID uint, role string, expiry time.Duration) string {
	pair, err := util.GenerateTokenPair(userID, "user@example.com", role, testJWTSecret, expiry, expiry)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestAuthenticate_ValidToken(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)

	var gotUserID uint
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		gotUserID = userID
		c.Status(http.StatusOK)
	})

	token := issueToken(t, 42, "customer", 15*time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), gotUserID)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token := issueToken(t, 1, "customer", -1*time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_EXPIRED")
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)
	router.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	pair, err := util.GenerateTokenPair(1, "user@example.com", "customer", "other-secret", time.Minute, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
}

func TestOptionalAuthenticate_Guest(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)

	router.GET("/open", m.OptionalAuthenticate(), func(c *gin.Context) {
		_, ok := GetUserID(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthenticate_InvalidTokenContinuesAsGuest(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)

	router.GET("/open", m.OptionalAuthenticate(), func(c *gin.Context) {
		_, ok := GetUserID(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthenticate_ValidToken(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)

	var gotUserID uint
	router.GET("/open", m.OptionalAuthenticate(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		gotUserID = userID
		c.Status(http.StatusOK)
	})

	token := issueToken(t, 7, "customer", 15*time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), gotUserID)
}

func TestRequireRole(t *testing.T) {
	router, m := setupAuthMiddlewareTest(t)

	router.GET("/admin", m.Authenticate(), m.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	adminToken := issueToken(t, 1, "admin", 15*time.Minute)
	customerToken := issueToken(t, 2, "customer", 15*time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
