package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/user-management-api/internal/payload"
)

func TestStrongPasswordRule(t *testing.T) {
	validate, _, err := newValidator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Sup3r$ecret", true},
		{"too short", "aB1$", false},
		{"no uppercase", "sup3r$ecret", false},
		{"no lowercase", "SUP3R$ECRET", false},
		{"no digit", "Super$ecret", false},
		{"no special", "Sup3rSecret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(payload.RegisterRequest{
				Name:     "Alice",
				Email:    "alice@example.com",
				Password: tt.password,
				Role:     "user",
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegisterRequestValidation(t *testing.T) {
	validate, _, err := newValidator()
	require.NoError(t, err)

	valid := payload.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "Sup3r$ecret",
		Role:     "user",
	}
	assert.NoError(t, validate.Struct(valid))

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, validate.Struct(badEmail))

	shortName := valid
	shortName.Name = "A"
	assert.Error(t, validate.Struct(shortName))

	badRole := valid
	badRole.Role = "superuser"
	assert.Error(t, validate.Struct(badRole))
}

func TestLoginRequestValidation(t *testing.T) {
	validate, _, err := newValidator()
	require.NoError(t, err)

	valid := payload.LoginRequest{Email: "alice@example.com", Password: "Sup3r$ecret", Role: "user"}
	assert.NoError(t, validate.Struct(valid))

	withTOTP := valid
	withTOTP.OTP = "123456"
	assert.NoError(t, validate.Struct(withTOTP))

	// Backup codes are 8 base32 characters and must pass the same field.
	withBackupCode := valid
	withBackupCode.OTP = "MFRGGZDF"
	assert.NoError(t, validate.Struct(withBackupCode))

	shortOTP := valid
	shortOTP.OTP = "12ab"
	assert.Error(t, validate.Struct(shortOTP))

	longOTP := valid
	longOTP.OTP = "MFRGGZDFA"
	assert.Error(t, validate.Struct(longOTP))

	badOTP := valid
	badOTP.OTP = "123-456"
	assert.Error(t, validate.Struct(badOTP))
}
