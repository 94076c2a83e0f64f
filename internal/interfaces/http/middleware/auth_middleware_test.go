package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/jwt"
)

func TestAuthMiddleware_BearerFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService := jwt.NewJWTService("secret", time.Hour)

	r := gin.New()
	r.Use(AuthMiddleware(jwtService))
	r.GET("/me", func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		require.Equal(t, entities.UserRoleTrader, actor.Role)
		c.Status(http.StatusNoContent)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer invalid")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("valid token", func(t *testing.T) {
		issued, err := jwtService.Issue(uuid.New(), "t@example.com", "trader")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := jwt.NewJWTService("secret", -time.Minute)
	issued, err := issuer.Issue(uuid.New(), "u@example.com", "user")
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware(jwt.NewJWTService("secret", time.Hour)))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Token has expired")
}

func TestContextGetters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := GetUserID(c)
	require.False(t, ok)
	_, ok = GetUserEmail(c)
	require.False(t, ok)
	_, ok = GetUserRole(c)
	require.False(t, ok)
	_, ok = GetActor(c)
	require.False(t, ok)

	id := uuid.New()
	c.Set(UserIDKey, id)
	c.Set(UserEmailKey, "admin@example.com")
	c.Set(UserRoleKey, "admin")

	gotID, ok := GetUserID(c)
	require.True(t, ok)
	require.Equal(t, id, gotID)
	gotEmail, ok := GetUserEmail(c)
	require.True(t, ok)
	require.Equal(t, "admin@example.com", gotEmail)
	actor, ok := GetActor(c)
	require.True(t, ok)
	require.Equal(t, entities.Actor{UserID: id, Role: entities.UserRoleAdmin}, actor)

	c.Set(UserIDKey, "not-a-uuid")
	_, ok = GetUserID(c)
	require.False(t, ok)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(UserRoleKey, role)
			}
			c.Next()
		})
		r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		r.GET("/trader", RequireTraderOrAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	cases := []struct {
		role string
		path string
		want int
	}{
		{"", "/admin", http.StatusUnauthorized},
		{"user", "/admin", http.StatusForbidden},
		{"trader", "/admin", http.StatusForbidden},
		{"admin", "/admin", http.StatusNoContent},
		{"user", "/trader", http.StatusForbidden},
		{"trader", "/trader", http.StatusNoContent},
		{"admin", "/trader", http.StatusNoContent},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		newRouter(tc.role).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.want, w.Code, "role=%q path=%s", tc.role, tc.path)
	}
}
