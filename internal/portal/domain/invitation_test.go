package domain_test

import (
	"testing"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestInvitationStatusAt(t *testing.T) {
	expires := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		active bool
		now    time.Time
		want   domain.InvitationStatus
		wantOK bool
	}{
		{"well before expiry", false, expires.Add(-24 * time.Hour), domain.InvitationPending, true},
		{"one nanosecond before", false, expires.Add(-time.Nanosecond), domain.InvitationPending, true},
		{"exact boundary is expired", false, expires, domain.InvitationExpired, true},
		{"after expiry", false, expires.Add(time.Hour), domain.InvitationExpired, true},
		{"active account has no invitation", true, expires.Add(-time.Hour), "", false},
		{"active and past expiry", true, expires.Add(time.Hour), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.InvitationStatusAt(tt.active, expires, tt.now)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInvitationOf(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := created.Add(domain.DefaultInvitationTTL)

	u := domain.User{
		ID:              "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Email:           "new@uni.edu",
		Role:            domain.RoleResearcher,
		InviteTokenHash: "deadbeef",
		InviteExpiresAt: &expires,
		CreatedAt:       created,
	}

	inv, ok := domain.InvitationOf(u, created.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.Equal(t, u.ID, inv.ID)
	require.Equal(t, expires, inv.ExpiresAt)

	inv, ok = domain.InvitationOf(u, expires)
	require.True(t, ok)
	require.Equal(t, domain.InvitationExpired, inv.Status)

	u.IsActive = true
	_, ok = domain.InvitationOf(u, created)
	require.False(t, ok)

	u.IsActive = false
	u.InviteTokenHash = ""
	_, ok = domain.InvitationOf(u, created)
	require.False(t, ok, "a manually created account without a token is not an invitation")
}

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("admin")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, r)

	r, err = domain.ParseRole("researcher")
	require.NoError(t, err)
	require.Equal(t, domain.RoleResearcher, r)

	for _, bad := range []string{"", "Admin", "superuser", "researchers"} {
		_, err := domain.ParseRole(bad)
		require.ErrorIs(t, err, domain.ErrUnknownRole, "input %q", bad)
	}

	_, err = domain.Role(0).MarshalText()
	require.Error(t, err)

	txt, err := domain.RoleResearcher.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "researcher", string(txt))
}
