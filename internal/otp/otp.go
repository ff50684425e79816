// Package otp implements the second-factor credential service: TOTP secrets
// for authenticator apps and single-use backup codes for device loss.
package otp

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/vasapolrittideah/user-management-api/internal/security"
)

const (
	// BackupCodeCount is the number of backup codes handed out on enrollment.
	BackupCodeCount = 8

	backupCodeBytes = 5 // 5 raw bytes encode to exactly 8 base32 characters
	qrCodeSize      = 200
)

// Enrollment carries the plaintext artifacts of a fresh TOTP enrollment. This
// is the only moment the secret leaves the service in the clear.
type Enrollment struct {
	Secret   string
	SetupURI string
	QRCode   string // PNG data URL for authenticator app setup
}

// Service generates and verifies TOTP credentials for a given issuer name.
type Service struct {
	issuer string
}

// NewService creates an OTP service. The issuer is the label shown in
// authenticator apps next to the account email.
func NewService(issuer string) Service {
	return Service{issuer: issuer}
}

// Enroll generates a TOTP secret and its provisioning artifacts for the given
// account email. The secret must be persisted immediately, but two-factor
// stays disabled until the user confirms a first code.
func (s Service) Enroll(email string) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
	})
	if err != nil {
		return Enrollment{}, err
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return Enrollment{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Enrollment{}, err
	}

	return Enrollment{
		Secret:   key.Secret(),
		SetupURI: key.URL(),
		QRCode:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyCode checks a 6-digit time-based code against a base32 secret,
// tolerating two time steps of clock skew in either direction.
func (s Service) VerifyCode(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      2,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})

	return err == nil && ok
}

// GenerateBackupCodes returns count random 8-character alphanumeric codes.
// The caller hashes them for storage; the plaintext is shown to the user
// exactly once.
func (s Service) GenerateBackupCodes(count int) ([]string, error) {
	if count <= 0 {
		count = BackupCodeCount
	}

	codes := make([]string, count)
	for i := range codes {
		b := make([]byte, backupCodeBytes)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}

		codes[i] = base32.StdEncoding.EncodeToString(b)
	}

	return codes, nil
}

// VerifyBackupCode scans the stored hashes for one matching the presented
// code. On a match it returns true and the remaining set with the matched
// hash removed; a code is usable exactly once. No match leaves the set
// unchanged.
func (s Service) VerifyBackupCode(code string, storedHashes []string) (bool, []string) {
	for i, hash := range storedHashes {
		ok, err := security.VerifyPassword(code, hash)
		if err != nil || !ok {
			continue
		}

		remaining := make([]string, 0, len(storedHashes)-1)
		remaining = append(remaining, storedHashes[:i]...)
		remaining = append(remaining, storedHashes[i+1:]...)

		return true, remaining
	}

	return false, storedHashes
}
