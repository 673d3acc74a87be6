package portal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

// TestResetPasswordEndsSessions runs portalctl reset-password against a
// live server.
func TestResetPasswordEndsSessions(t *testing.T) {
	s := setupStack(t, nil)
	admin := s.adminClient(t)
	ctx := t.Context()

	code, out := s.portalctl(t, "a-brand-new-password", "reset-password", "--email", adminEmail)
	require.Equal(t, 0, code, out)

	require.False(t, admin.Refresh(ctx), "old refresh cookie must be revoked")

	_, err := s.client(t).Login(ctx, portalsdk.RoleAdmin, adminEmail, adminPassword, "")
	require.ErrorIs(t, err, portalsdk.ErrInvalidCredentials)

	_, err = s.client(t).Login(ctx, portalsdk.RoleAdmin, adminEmail, "a-brand-new-password", "")
	require.NoError(t, err)
}

// TestCreateAdminRejectsDuplicates checks the CLI exit status.
func TestCreateAdminRejectsDuplicates(t *testing.T) {
	s := setupStack(t, nil)
	s.createAdmin(t)

	code, out := s.portalctl(t, adminPassword, "create-admin", "--email", adminEmail)
	require.NotEqual(t, 0, code)
	require.Contains(t, out, "already exists")
}
