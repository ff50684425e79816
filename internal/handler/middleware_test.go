package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/user-management-api/internal/auth"
	"github.com/vasapolrittideah/user-management-api/internal/model"
)

func newTestAuthenticator(expiresIn time.Duration) auth.JWTAuthenticator {
	return auth.NewJWTAuthenticator("test-secret", "user-management-api-test", "user-management-api-test", expiresIn)
}

func claimsEchoHandler(t *testing.T, wantAccountID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		require.True(t, ok, "claims missing from request context")
		assert.Equal(t, wantAccountID, claims.AccountID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate_Cookie(t *testing.T) {
	jwtAuth := newTestAuthenticator(time.Hour)
	tokenString, err := jwtAuth.IssueSessionToken("68b0f0c2a7e1d34b9c000001", model.RoleUser)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tokenString})
	w := httptest.NewRecorder()

	Authenticate(jwtAuth)(claimsEchoHandler(t, "68b0f0c2a7e1d34b9c000001")).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	jwtAuth := newTestAuthenticator(time.Hour)
	tokenString, err := jwtAuth.IssueSessionToken("68b0f0c2a7e1d34b9c000001", model.RoleUser)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	Authenticate(jwtAuth)(claimsEchoHandler(t, "68b0f0c2a7e1d34b9c000001")).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthenticate_NoToken(t *testing.T) {
	jwtAuth := newTestAuthenticator(time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()

	Authenticate(jwtAuth)(claimsEchoHandler(t, "")).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no token provided")
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	expiredIssuer := newTestAuthenticator(-time.Minute)
	tokenString, err := expiredIssuer.IssueSessionToken("68b0f0c2a7e1d34b9c000001", model.RoleUser)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	Authenticate(newTestAuthenticator(time.Hour))(claimsEchoHandler(t, "")).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	jwtAuth := newTestAuthenticator(time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()

	Authenticate(jwtAuth)(claimsEchoHandler(t, "")).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}
