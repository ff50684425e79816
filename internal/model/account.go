package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role distinguishes the two account variants sharing the accounts collection.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account represents an admin or user account. The two variants have the same
// shape and are told apart by the Role field. Emails are unique per role, not
// globally: the same address may own both an admin and a user account.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Role         Role          `bson:"role"`

	IsEmailVerified           bool       `bson:"is_email_verified"`
	EmailVerificationToken    string     `bson:"email_verification_token,omitempty"`
	EmailVerificationExpires  *time.Time `bson:"email_verification_expires,omitempty"`
	PasswordResetToken        string     `bson:"password_reset_token,omitempty"`
	PasswordResetExpires      *time.Time `bson:"password_reset_expires,omitempty"`

	TwoFactorEnabled bool     `bson:"two_factor_enabled"`
	TwoFactorSecret  string   `bson:"two_factor_secret,omitempty"`
	BackupCodes      []string `bson:"backup_codes,omitempty"`

	LastLogin *time.Time `bson:"last_login,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}
