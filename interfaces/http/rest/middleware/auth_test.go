package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusboard/pkg/auth"
)

func newAuthTestHandler(t *testing.T) (http.Handler, *auth.JWTService) {
	t.Helper()

	jwtService := auth.NewJWTService("test-secret", "nexusboard", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-User", user.UserID)
		w.WriteHeader(http.StatusOK)
	})
	return Authenticate(jwtService, zap.NewNop())(next), jwtService
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	handler, jwtService := newAuthTestHandler(t)
	token, err := jwtService.GenerateToken("user-123", "", "Ada", "#ff0000")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/p1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", rec.Header().Get("X-User"))
}

func TestAuthenticate_Cookie(t *testing.T) {
	handler, jwtService := newAuthTestHandler(t)
	token, err := jwtService.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/p1", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_QueryParam(t *testing.T) {
	handler, jwtService := newAuthTestHandler(t)
	token, err := jwtService.GenerateToken("user-123", "", "Ada", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/p1?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/p1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/p1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
