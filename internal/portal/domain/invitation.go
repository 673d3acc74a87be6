package domain

import "time"

// InvitationStatus is derived on read and never stored.
type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationExpired InvitationStatus = "expired"
)

// DefaultInvitationTTL is how long an emailed invitation stays redeemable.
const DefaultInvitationTTL = 30 * 24 * time.Hour

// InvitationStatusAt is the only place invitation status is decided. Listing
// and redemption both call it. An active account has no invitation, reported
// by ok=false. An invitation is expired from the instant now reaches expires.
func InvitationStatusAt(isActive bool, expires, now time.Time) (status InvitationStatus, ok bool) {
	if isActive {
		return "", false
	}
	if !now.Before(expires) {
		return InvitationExpired, true
	}
	return InvitationPending, true
}

// Invitation is the administrator facing view of a pending account.
type Invitation struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// InvitationOf builds the invitation view of u at now. ok is false when u
// is not an outstanding invitation.
func InvitationOf(u User, now time.Time) (Invitation, bool) {
	if !u.HasInvitation() {
		return Invitation{}, false
	}
	status, ok := InvitationStatusAt(u.IsActive, *u.InviteExpiresAt, now)
	if !ok {
		return Invitation{}, false
	}
	return Invitation{
		ID:        u.ID,
		Email:     u.Email,
		Status:    status,
		CreatedAt: u.CreatedAt,
		ExpiresAt: *u.InviteExpiresAt,
	}, true
}
