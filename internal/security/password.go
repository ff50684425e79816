package security

import (
	"github.com/matthewhartstonge/argon2"
)

var config = argon2.DefaultConfig()

// HashPassword hashes a plaintext password (or backup code) with argon2id and
// returns the encoded form suitable for storage.
func HashPassword(password string) (string, error) {
	encoded, err := config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword compares a plaintext password against an encoded argon2
// hash. It reports a mismatch as (false, nil); an error means the hash could
// not be parsed.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
