package http

import (
	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

func toUser(u domain.User) portalsdk.User {
	return portalsdk.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           portalsdk.Role(u.Role.String()),
		Faculty:        u.Faculty,
		Bio:            u.Bio,
		Title:          u.Title,
		ProfilePicture: u.ProfilePicture,
		MFAEnabled:     u.MFAEnabled(),
		LastLogin:      u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

func toUsers(us []domain.User) []portalsdk.User {
	out := make([]portalsdk.User, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

func toInvitation(inv domain.Invitation) portalsdk.Invitation {
	return portalsdk.Invitation{
		ID:      inv.ID,
		Email:   inv.Email,
		Status:  string(inv.Status),
		Created: inv.CreatedAt.UTC().Format(portalsdk.DateLayout),
		Expires: inv.ExpiresAt.UTC().Format(portalsdk.DateLayout),
	}
}
