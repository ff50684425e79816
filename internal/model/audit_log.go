package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuditAction identifies a security-relevant account event.
type AuditAction string

const (
	ActionLogin                  AuditAction = "LOGIN"
	ActionLogout                 AuditAction = "LOGOUT"
	ActionRegister               AuditAction = "REGISTER"
	ActionEmailVerified          AuditAction = "EMAIL_VERIFIED"
	ActionPasswordChanged        AuditAction = "PASSWORD_CHANGED"
	ActionPasswordResetRequested AuditAction = "PASSWORD_RESET_REQUESTED"
	ActionPasswordResetCompleted AuditAction = "PASSWORD_RESET_COMPLETED"
	ActionTwoFactorEnabled       AuditAction = "2FA_ENABLED"
	ActionTwoFactorDisabled      AuditAction = "2FA_DISABLED"
	ActionProfileUpdated         AuditAction = "PROFILE_UPDATED"
	ActionAccountDeleted         AuditAction = "ACCOUNT_DELETED"
	ActionFailedLoginAttempt     AuditAction = "FAILED_LOGIN_ATTEMPT"
)

// AuditLog is an append-only record of a security-relevant event. Entries
// reference the account by ID but are never mutated or deleted with it.
type AuditLog struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Action    AuditAction   `bson:"action"`
	IPAddress string        `bson:"ip_address,omitempty"`
	UserAgent string        `bson:"user_agent,omitempty"`
	Details   bson.M        `bson:"details,omitempty"`
	Timestamp time.Time     `bson:"timestamp"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
