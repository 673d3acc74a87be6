package domain

import "time"

// RefreshToken is the stored record of an issued refresh credential. Only the
// fingerprint of the credential is kept.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string   // base64url SHA-256
	AMR       []string // methods used at the login that started this chain
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time // nil for rows revoked before this was recorded
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the credential may be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Session is the result of a successful login or refresh: a signed access
// token for the Authorization header and a refresh credential that is only
// ever sent in a cookie.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             User
}
