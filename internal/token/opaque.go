// Package token issues the opaque single-use credentials used for email
// verification and password reset. Plaintext tokens leave the process only
// through out-of-band delivery; the store ever sees their SHA-256 digest.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const opaqueTokenBytes = 32

// Opaque is a freshly issued single-use token. Plain is handed to the user
// exactly once; Hash and ExpiresAt are what gets persisted.
type Opaque struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// IssueOpaque generates a cryptographically random token with the given TTL.
func IssueOpaque(ttl time.Duration) (Opaque, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return Opaque{}, err
	}

	plain := hex.EncodeToString(b)

	return Opaque{
		Plain:     plain,
		Hash:      Hash(plain),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Hash returns the hex-encoded SHA-256 digest of a plaintext token. Presented
// tokens are looked up by this digest, never by the plaintext.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
