package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vasapolrittideah/user-management-api/internal/model"
)

var (
	ErrTokenExpired = errors.New("session token has expired")
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims are the signed claims carried by a session token.
type SessionClaims struct {
	AccountID string     `json:"account_id"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256-signed session tokens. There is
// no server-side session table and no revocation list; expiry is the only
// bound on a token's lifetime.
type JWTAuthenticator struct {
	secret    string
	audience  string
	issuer    string
	expiresIn time.Duration
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance. The caller is
// responsible for having validated the secret at startup; an empty secret is
// a fatal misconfiguration, not a request-time condition.
func NewJWTAuthenticator(secret, audience, issuer string, expiresIn time.Duration) JWTAuthenticator {
	return JWTAuthenticator{
		secret:    secret,
		audience:  audience,
		issuer:    issuer,
		expiresIn: expiresIn,
	}
}

// IssueSessionToken signs a token encoding the account's identity and role.
func (a *JWTAuthenticator) IssueSessionToken(accountID string, role model.Role) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(a.secret))
}

// VerifySessionToken validates a presented token and returns its claims.
// Expired tokens are reported as ErrTokenExpired; every other failure mode
// (bad signature, wrong audience, malformed) collapses into ErrInvalidToken.
func (a *JWTAuthenticator) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(a.secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
