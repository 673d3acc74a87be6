package domain

import "time"

// User is an administrator or researcher account. An invited researcher is a
// User with IsActive false and the invite fields set.
type User struct {
	ID           string
	Email        string // lower-cased, unique
	Name         string
	Role         Role
	PasswordHash string // argon2id PHC string, empty until set
	IsActive     bool

	Faculty        string
	Bio            string
	Title          string
	ProfilePicture string // public URL path

	InviteTokenHash string     // hex SHA-256 of the emailed token
	InviteExpiresAt *time.Time // nil once redeemed

	MFASecret    *string    // base32 TOTP secret
	MFAEnabledAt *time.Time // nil while TOTP is not active

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) MFAEnabled() bool { return u.MFAEnabledAt != nil && u.MFASecret != nil }

// HasInvitation reports whether the account is still waiting on an
// invitation to be redeemed.
func (u User) HasInvitation() bool {
	return !u.IsActive && u.InviteTokenHash != "" && u.InviteExpiresAt != nil
}
