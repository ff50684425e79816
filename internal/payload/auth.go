package payload

import "time"

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=admin user"`
	// OTP accepts either a 6-digit TOTP code or an 8-character backup code.
	OTP      string `json:"otp"      validate:"omitempty,min=6,max=8,alphanum"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,strongpassword"`
}

// AccountResponse is the public shape of an account. The password hash,
// token hashes, two-factor secret and backup codes never appear in it.
type AccountResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	IsEmailVerified  bool       `json:"is_email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type LoginResponse struct {
	Message string          `json:"message"`
	User    AccountResponse `json:"user"`
	Token   string          `json:"token"`
}
