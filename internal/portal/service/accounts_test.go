package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
)

func newAccountService(t *testing.T) (*AccountService, *fakeMailer) {
	t.Helper()
	m := &fakeMailer{}
	c := newClock()
	return &AccountService{
		Store:  newTestStore(t),
		Hasher: newTestHasher(t),
		Mailer: m,
		Now:    c.Now,
	}, m
}

func TestAddResearcher(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active account and emails credentials", func(t *testing.T) {
		svc, m := newAccountService(t)

		u, err := svc.AddResearcher(ctx, ResearcherInput{Email: "Ada@Uni.edu", Name: " Ada Obi ", Faculty: "Science"})
		require.NoError(t, err)
		require.True(t, u.IsActive)
		require.Equal(t, domain.RoleResearcher, u.Role)
		require.Equal(t, "Ada Obi", u.Name)

		require.Len(t, m.credentials, 1)
		sent := m.credentials[0]
		require.Equal(t, "ada@uni.edu", sent.To)
		require.Len(t, sent.Password, 12)

		stored, err := svc.Store.Users().GetUserByEmail(ctx, "ada@uni.edu")
		require.NoError(t, err)
		require.NoError(t, svc.Hasher.Verify(sent.Password, stored.PasswordHash))

		list, err := svc.ListResearchers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("validation and conflict", func(t *testing.T) {
		svc, _ := newAccountService(t)

		_, err := svc.AddResearcher(ctx, ResearcherInput{Email: "ada@uni.edu"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Contains(t, ve.Fields, "name")
		require.Contains(t, ve.Fields, "faculty")

		in := ResearcherInput{Email: "ada@uni.edu", Name: "Ada", Faculty: "Science"}
		_, err = svc.AddResearcher(ctx, in)
		require.NoError(t, err)
		_, err = svc.AddResearcher(ctx, in)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("pending invitations are not listed", func(t *testing.T) {
		svc, m := newAccountService(t)
		inv := &InviteService{Store: svc.Store, Mailer: m, Hasher: svc.Hasher}
		_, err := inv.Invite(ctx, "pending@uni.edu")
		require.NoError(t, err)

		list, err := svc.ListResearchers(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestCreateAdminAndResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountService(t)

	_, err := svc.CreateAdmin(ctx, "boss@uni.edu", "Boss", "short")
	require.ErrorIs(t, err, ErrValidation)

	admin, err := svc.CreateAdmin(ctx, "boss@uni.edu", "Boss", "long enough")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.CreateAdmin(ctx, "BOSS@uni.edu", "Boss", "long enough")
	require.ErrorIs(t, err, ErrConflict)

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, svc.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID: "rt-1", UserID: admin.ID, TokenHash: cryptox.FingerprintToken(refresh), ExpiresAt: newClock().Now().AddDate(1, 0, 0),
	}))

	require.NoError(t, svc.ResetPassword(ctx, "boss@uni.edu", "another secret"))
	u, err := svc.Store.Users().GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Hasher.Verify("another secret", u.PasswordHash))

	rt, err := svc.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refresh))
	require.NoError(t, err)
	require.True(t, rt.Revoked)

	require.ErrorIs(t, svc.ResetPassword(ctx, "nobody@uni.edu", "another secret"), ErrNotFound)
}
