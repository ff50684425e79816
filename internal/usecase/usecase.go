// Package usecase implements the account lifecycle core: registration,
// login, email verification, password reset, two-factor enrollment and
// profile mutation. Persistence, email delivery and audit recording are
// collaborators behind narrow interfaces.
package usecase

import (
	"errors"
	"strings"

	"github.com/vasapolrittideah/user-management-api/internal/model"
)

var (
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredentials deliberately covers both "no such account" and
	// "wrong password" so login responses cannot be used to enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailNotVerified = errors.New("email not verified")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrAccountNotFound  = errors.New("account not found")
	ErrInvalidRole      = errors.New("invalid role")

	ErrOTPRequired       = errors.New("two-factor code required")
	ErrInvalidOTP        = errors.New("invalid OTP")
	ErrIncorrectPassword = errors.New("incorrect password")

	ErrTwoFactorAlreadyEnabled = errors.New("2FA is already enabled")
	ErrTwoFactorNotEnabled     = errors.New("2FA is not enabled")
	ErrTwoFactorNotPending     = errors.New("2FA setup not initiated")
)

// Meta carries request attribution recorded alongside audit entries.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Auditor records security-relevant events, fire-and-forget.
type Auditor interface {
	Record(entry model.AuditLog)
}

// normalizeEmail applies the canonical form used everywhere an email touches
// the store: trimmed and lowercased, so comparison is case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
