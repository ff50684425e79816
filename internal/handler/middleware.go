package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/user-management-api/internal/auth"
)

// sessionCookieName is the cookie carrying the session token for browser
// clients; API clients may use a bearer header instead.
const sessionCookieName = "token"

type contextKey struct{}

var sessionClaimsKey = contextKey{}

// Authenticate verifies the session token from the cookie or Authorization
// header and stores its claims on the request context.
func Authenticate(jwtAuth auth.JWTAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				respondMessage(w, http.StatusUnauthorized, "Access denied: no token provided")
				return
			}

			claims, err := jwtAuth.VerifySessionToken(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					respondMessage(w, http.StatusUnauthorized, "Unauthorized: token has expired")
					return
				}

				respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}

	return ""
}

func claimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(*auth.SessionClaims)
	return claims, ok
}
