package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/pkg/idx"
)

type inviteFixture struct {
	svc    *InviteService
	mailer *fakeMailer
	clock  *clock
}

func newInviteFixture(t *testing.T) inviteFixture {
	t.Helper()
	c := newClock()
	m := &fakeMailer{}
	return inviteFixture{
		svc: &InviteService{
			Store:  newTestStore(t),
			Mailer: m,
			Hasher: newTestHasher(t),
			Now:    c.Now,
		},
		mailer: m,
		clock:  c,
	}
}

func validProfile() ProfileInput {
	return ProfileInput{Name: "Ada Obi", Password: "correct horse", Faculty: "Engineering"}
}

func TestInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending invitation and emails token", func(t *testing.T) {
		f := newInviteFixture(t)

		inv, err := f.svc.Invite(ctx, "  Ada@Uni.EDU ")
		require.NoError(t, err)
		require.Equal(t, "ada@uni.edu", inv.Email)
		require.Equal(t, domain.InvitationPending, inv.Status)
		require.Equal(t, f.clock.Now().Add(domain.DefaultInvitationTTL), inv.ExpiresAt)

		require.Len(t, f.mailer.invitations, 1)
		sent := f.mailer.invitations[0]
		require.Equal(t, "ada@uni.edu", sent.To)
		require.Len(t, sent.Token, 64)

		u, err := f.svc.Store.Users().GetUserByID(ctx, inv.ID)
		require.NoError(t, err)
		require.False(t, u.IsActive)
		require.NotEqual(t, sent.Token, u.InviteTokenHash)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.Invite(ctx, "not-an-email")
		require.ErrorIs(t, err, ErrValidation)

		_, err = f.svc.Invite(ctx, "")
		require.ErrorIs(t, err, ErrValidation)
		require.Empty(t, f.mailer.invitations)
	})

	t.Run("rejects registered email", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)

		_, err = f.svc.Invite(ctx, "ADA@uni.edu")
		require.ErrorIs(t, err, ErrConflict)
		require.Len(t, f.mailer.invitations, 1)
	})

	t.Run("delivery failure keeps the account", func(t *testing.T) {
		f := newInviteFixture(t)
		f.mailer.fail = true

		inv, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.ErrorIs(t, err, ErrDelivery)
		require.NotEmpty(t, inv.ID)

		list, err := f.svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}

func TestInvite_ListStatus(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture(t)

	first, err := f.svc.Invite(ctx, "first@uni.edu")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Invite(ctx, "second@uni.edu")
	require.NoError(t, err)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "second@uni.edu", list[0].Email)
	for _, inv := range list {
		require.Equal(t, domain.InvitationPending, inv.Status)
	}

	// The first invitation expires exactly at its expiry instant.
	f.clock.Advance(first.ExpiresAt.Sub(f.clock.Now()))
	list, err = f.svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, list[0].Status)
	require.Equal(t, domain.InvitationExpired, list[1].Status)
}

func TestInvite_Resend(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces token and extends expiry", func(t *testing.T) {
		f := newInviteFixture(t)

		inv, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)
		oldToken := f.mailer.lastToken(t)

		f.clock.Advance(31 * 24 * time.Hour)
		list, err := f.svc.List(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationExpired, list[0].Status)

		again, err := f.svc.Resend(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationPending, again.Status)
		require.True(t, again.ExpiresAt.After(inv.ExpiresAt))

		newToken := f.mailer.lastToken(t)
		require.NotEqual(t, oldToken, newToken)

		_, err = f.svc.CompleteProfile(ctx, oldToken, validProfile())
		require.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.CompleteProfile(ctx, newToken, validProfile())
		require.NoError(t, err)
	})

	t.Run("unknown or malformed id", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.Resend(ctx, idx.New().String())
		require.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.Resend(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("redeemed invitation cannot be resent", func(t *testing.T) {
		f := newInviteFixture(t)

		inv, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)
		_, err = f.svc.CompleteProfile(ctx, f.mailer.lastToken(t), validProfile())
		require.NoError(t, err)

		_, err = f.svc.Resend(ctx, inv.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInvite_Revoke(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture(t)

	inv, err := f.svc.Invite(ctx, "ada@uni.edu")
	require.NoError(t, err)
	token := f.mailer.lastToken(t)

	require.NoError(t, f.svc.Revoke(ctx, inv.ID))
	require.ErrorIs(t, f.svc.Revoke(ctx, inv.ID), ErrNotFound)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = f.svc.CompleteProfile(ctx, token, validProfile())
	require.ErrorIs(t, err, ErrNotFound)

	// The address is free again.
	_, err = f.svc.Invite(ctx, "ada@uni.edu")
	require.NoError(t, err)
}

func TestInvite_CompleteProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("activates the account", func(t *testing.T) {
		f := newInviteFixture(t)

		inv, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)
		token := f.mailer.lastToken(t)

		in := validProfile()
		in.Title = "Dr"
		in.ProfilePicture = "/uploads/ada.png"
		u, err := f.svc.CompleteProfile(ctx, token, in)
		require.NoError(t, err)
		require.Equal(t, inv.ID, u.ID)
		require.True(t, u.IsActive)
		require.Equal(t, "Ada Obi", u.Name)
		require.Equal(t, "Dr", u.Title)
		require.Equal(t, "/uploads/ada.png", u.ProfilePicture)
		require.Empty(t, u.InviteTokenHash)
		require.Nil(t, u.InviteExpiresAt)
		require.NoError(t, f.svc.Hasher.Verify("correct horse", u.PasswordHash))

		list, err := f.svc.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)

		_, err = f.svc.CompleteProfile(ctx, token, validProfile())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)
		token := f.mailer.lastToken(t)

		f.clock.Advance(domain.DefaultInvitationTTL - time.Second)
		f2 := *f.svc
		f2.Now = func() time.Time { return f.clock.Now().Add(time.Second) }
		_, err = f2.CompleteProfile(ctx, token, validProfile())
		require.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.CompleteProfile(ctx, token, validProfile())
		require.NoError(t, err)
	})

	t.Run("validates input before the token", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.CompleteProfile(ctx, "unknown", ProfileInput{Name: " ", Password: "short"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Contains(t, ve.Fields, "name")
		require.Contains(t, ve.Fields, "password")
	})

	t.Run("lookup", func(t *testing.T) {
		f := newInviteFixture(t)

		inv, err := f.svc.Invite(ctx, "ada@uni.edu")
		require.NoError(t, err)

		got, err := f.svc.Lookup(ctx, f.mailer.lastToken(t))
		require.NoError(t, err)
		require.Equal(t, inv.ID, got.ID)

		f.clock.Advance(domain.DefaultInvitationTTL)
		_, err = f.svc.Lookup(ctx, f.mailer.lastToken(t))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newInviteFixture(t)

		_, err := f.svc.CompleteProfile(ctx, "deadbeef", validProfile())
		require.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.CompleteProfile(ctx, "", validProfile())
		require.ErrorIs(t, err, ErrNotFound)
	})
}

// hookStore runs a callback once, right after the wrapped Users lookup it
// names, to interleave a second operation.
type hookStore struct {
	store.Store
	afterTokenLookup func()
	afterIDLookup    func()
}

func (h *hookStore) Users() store.Users { return hookUsers{Users: h.Store.Users(), h: h} }

type hookUsers struct {
	store.Users
	h *hookStore
}

func (u hookUsers) GetUserByInviteTokenHash(ctx context.Context, hash string) (domain.User, error) {
	got, err := u.Users.GetUserByInviteTokenHash(ctx, hash)
	if fn := u.h.afterTokenLookup; fn != nil {
		u.h.afterTokenLookup = nil
		fn()
	}
	return got, err
}

func (u hookUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	got, err := u.Users.GetUserByID(ctx, id)
	if fn := u.h.afterIDLookup; fn != nil {
		u.h.afterIDLookup = nil
		fn()
	}
	return got, err
}

func TestInvite_ResendDuringRedemption(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture(t)

	inv, err := f.svc.Invite(ctx, "ada@uni.edu")
	require.NoError(t, err)
	oldToken := f.mailer.lastToken(t)

	hs := &hookStore{Store: f.svc.Store}
	f.svc.Store = hs
	hs.afterTokenLookup = func() {
		_, err := f.svc.Resend(ctx, inv.ID)
		require.NoError(t, err)
	}

	_, err = f.svc.CompleteProfile(ctx, oldToken, validProfile())
	require.ErrorIs(t, err, ErrNotFound)

	u, err := f.svc.Store.Users().GetUserByID(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, u.IsActive)

	_, err = f.svc.CompleteProfile(ctx, f.mailer.lastToken(t), validProfile())
	require.NoError(t, err)
}

func TestInvite_RevokeDuringRedemption(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture(t)

	inv, err := f.svc.Invite(ctx, "ada@uni.edu")
	require.NoError(t, err)
	token := f.mailer.lastToken(t)

	hs := &hookStore{Store: f.svc.Store}
	f.svc.Store = hs
	hs.afterIDLookup = func() {
		_, err := f.svc.CompleteProfile(ctx, token, validProfile())
		require.NoError(t, err)
	}

	require.ErrorIs(t, f.svc.Revoke(ctx, inv.ID), ErrNotFound)

	u, err := f.svc.Store.Users().GetUserByID(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, u.IsActive)
}
