package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Token sizes in raw bytes before encoding.
const (
	TokenSize128 = 16
	TokenSize256 = 32
)

// GenerateToken returns size random bytes encoded as base64url without
// padding. Refresh credentials use TokenSize256.
func GenerateToken(size int) (string, error) {
	buf, err := randomBytes(size)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the base64url SHA-256 digest of token. Only the
// fingerprint of a refresh credential is ever persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateInviteToken returns a fresh invitation token and the digest that
// gets stored in place of it. The plaintext is the hex encoding of 32 random
// bytes and the digest is the hex SHA-256 of that string.
func GenerateInviteToken() (plain, digest string, err error) {
	buf, err := randomBytes(TokenSize256)
	if err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, HashInviteToken(plain), nil
}

// HashInviteToken maps a plaintext invitation token to its stored digest.
func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomBytes(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}
