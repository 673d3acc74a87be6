package store

import (
	"context"
	"errors"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers expose sub-repositories
// rather than flat methods so that a Tx can hand out the same repositories
// bound to the transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a Store bound to a transaction. Nested transactions are not
// supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// UserFilter narrows ListUsers. Nil fields match everything.
type UserFilter struct {
	Role   *domain.Role
	Active *bool
}

// ProfileUpdate is what a researcher submits when redeeming an invitation.
type ProfileUpdate struct {
	Name           string
	PasswordHash   string
	Faculty        string
	Bio            string
	Title          string
	ProfilePicture string
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByInviteTokenHash finds an account holding an unredeemed
	// invitation, whether or not it has expired.
	GetUserByInviteTokenHash(ctx context.Context, hash string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns accounts newest first.
	ListUsers(ctx context.Context, f UserFilter) ([]domain.User, error)

	// ListInvitations returns inactive accounts that hold an invitation,
	// newest first.
	ListInvitations(ctx context.Context) ([]domain.User, error)

	// ReplaceInviteToken overwrites the stored digest and expiry. Only
	// inactive accounts are touched; ErrNotFound otherwise.
	ReplaceInviteToken(ctx context.Context, id, hash string, expiresAt time.Time) error

	// ActivateProfile stores the profile, clears the invitation and marks
	// the account active in one statement. It only matches while the account
	// still holds inviteHash unexpired at now, so a token replaced or expired
	// since it was read reports ErrNotFound.
	ActivateProfile(ctx context.Context, id, inviteHash string, now time.Time, p ProfileUpdate) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteUser cascades to refresh_tokens. ErrNotFound when no row matched.
	DeleteUser(ctx context.Context, id string) error

	// DeleteInvitation removes a researcher account that is still inactive
	// and holds an invitation. ErrNotFound otherwise, including when the
	// invitation was redeemed in the meantime.
	DeleteInvitation(ctx context.Context, id string) error

	// CountByRole counts active accounts with role.
	CountByRole(ctx context.Context, role domain.Role) (int, error)

	UpdateMFASecret(ctx context.Context, id, secret string) error
	EnableMFA(ctx context.Context, id string, at time.Time) error
	DisableMFA(ctx context.Context, id string) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks up by fingerprint, including revoked and
	// expired rows so callers can tell them apart.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks the row revoked at at. It returns ErrNotFound
	// when no live row matched, which lets a rotation detect that a
	// concurrent one already won.
	RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error

	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteStaleRefreshTokens removes expired and revoked rows and
	// reports how many went.
	DeleteStaleRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
