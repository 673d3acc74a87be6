package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/idx"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

const minPasswordLength = 8

// Mailer delivers account emails. Implementations must not log token or
// password values.
type Mailer interface {
	SendInvitation(ctx context.Context, to, token string, expiresAt time.Time) error
	SendCredentials(ctx context.Context, to, name, password string) error
}

// ProfileInput is what an invited researcher submits to activate the
// account.
type ProfileInput struct {
	Name           string
	Password       string
	Faculty        string
	Bio            string
	Title          string
	ProfilePicture string // URL path of an already stored upload
}

// InviteService issues, lists, reissues, withdraws and redeems researcher
// invitations.
type InviteService struct {
	Store  store.Store
	Mailer Mailer
	Hasher *cryptox.PasswordHasher

	TTL time.Duration // defaults to domain.DefaultInvitationTTL
	Now func() time.Time
}

func (s *InviteService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *InviteService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.DefaultInvitationTTL
}

// Invite creates an inactive researcher account holding a fresh invitation
// and emails the token. If delivery fails the account is kept and
// ErrDelivery is returned so the administrator can resend.
func (s *InviteService) Invite(ctx context.Context, email string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate
	email, err := validEmail(email)
	if err != nil {
		return domain.Invitation{}, err
	}

	// 2. Refuse if any account already uses the address.
	_, err = s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info("invite refused: email registered", slogx.Email("email", email))
		return domain.Invitation{}, ErrConflict
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up email", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	// 3. Generate the token. Only its digest is stored.
	token, digest, err := cryptox.GenerateInviteToken()
	if err != nil {
		return domain.Invitation{}, err
	}

	now := s.now()
	expires := now.Add(s.ttl())
	u := domain.User{
		ID:              idx.New().String(),
		Email:           email,
		Role:            domain.RoleResearcher,
		IsActive:        false,
		InviteTokenHash: digest,
		InviteExpiresAt: &expires,
		CreatedAt:       now,
	}

	// 4. Persist. A concurrent invite for the same address loses here.
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invitation{}, ErrConflict
		}
		log.Error("failed to create invited account", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	inv, _ := domain.InvitationOf(u, now)
	log.Info("invitation created",
		slog.String("user_id", u.ID),
		slogx.Email("email", email),
		slog.Time("expires_at", expires),
	)

	// 5. Deliver.
	if err := s.Mailer.SendInvitation(ctx, email, token, expires); err != nil {
		log.Error("failed to send invitation", slog.String("user_id", u.ID), slog.Any("error", err))
		return inv, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return inv, nil
}

// List returns every outstanding invitation with its status evaluated now.
func (s *InviteService) List(ctx context.Context) ([]domain.Invitation, error) {
	users, err := s.Store.Users().ListInvitations(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.Invitation, 0, len(users))
	for _, u := range users {
		if inv, ok := domain.InvitationOf(u, now); ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Resend replaces the token and expiry of an outstanding invitation and
// emails the new token. The previous token stops working.
func (s *InviteService) Resend(ctx context.Context, id string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	u, err := s.outstanding(ctx, id)
	if err != nil {
		return domain.Invitation{}, err
	}

	token, digest, err := cryptox.GenerateInviteToken()
	if err != nil {
		return domain.Invitation{}, err
	}

	now := s.now()
	expires := now.Add(s.ttl())
	if err := s.Store.Users().ReplaceInviteToken(ctx, u.ID, digest, expires); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrNotFound
		}
		return domain.Invitation{}, err
	}
	u.InviteTokenHash = digest
	u.InviteExpiresAt = &expires

	inv, _ := domain.InvitationOf(u, now)
	log.Info("invitation reissued", slog.String("user_id", u.ID), slog.Time("expires_at", expires))

	if err := s.Mailer.SendInvitation(ctx, u.Email, token, expires); err != nil {
		log.Error("failed to resend invitation", slog.String("user_id", u.ID), slog.Any("error", err))
		return inv, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return inv, nil
}

// Revoke withdraws an invitation by deleting the pending account.
func (s *InviteService) Revoke(ctx context.Context, id string) error {
	u, err := s.outstanding(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Users().DeleteInvitation(ctx, u.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("invitation revoked", slog.String("user_id", u.ID))
	return nil
}

// Validate checks the fields CompleteProfile requires, without touching the
// token.
func (in ProfileInput) Validate() error {
	fe := fieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		fe.add("name", "is required")
	}
	if checkPassword(in.Password) != nil {
		fe.add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return fe.err()
}

// CompleteProfile redeems an invitation token. Unknown, reissued and
// expired tokens all report ErrNotFound.
func (s *InviteService) CompleteProfile(ctx context.Context, token string, in ProfileInput) (domain.User, error) {
	log := slogx.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	u, err := s.redeemable(ctx, token)
	if err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	update := store.ProfileUpdate{
		Name:           in.Name,
		PasswordHash:   hash,
		Faculty:        in.Faculty,
		Bio:            in.Bio,
		Title:          in.Title,
		ProfilePicture: in.ProfilePicture,
	}
	err = s.Store.Users().ActivateProfile(ctx, u.ID, u.InviteTokenHash, s.now(), update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("invitation changed before redemption", slog.String("user_id", u.ID))
			return domain.User{}, ErrNotFound
		}
		log.Error("failed to activate profile", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("invitation redeemed", slog.String("user_id", u.ID))
	return s.Store.Users().GetUserByID(ctx, u.ID)
}

// Lookup returns the pending invitation behind token. Unknown, reissued
// and expired tokens report ErrNotFound.
func (s *InviteService) Lookup(ctx context.Context, token string) (domain.Invitation, error) {
	u, err := s.redeemable(ctx, token)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv, _ := domain.InvitationOf(u, s.now())
	return inv, nil
}

func (s *InviteService) redeemable(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrNotFound
	}

	u, err := s.Store.Users().GetUserByInviteTokenHash(ctx, cryptox.HashInviteToken(token))
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Info("invitation token not recognised")
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	inv, ok := domain.InvitationOf(u, s.now())
	if !ok || inv.Status != domain.InvitationPending {
		slogx.FromContext(ctx).Info("invitation token expired", slog.String("user_id", u.ID))
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

// outstanding loads an account that still holds an invitation.
func (s *InviteService) outstanding(ctx context.Context, id string) (domain.User, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.User{}, ErrNotFound
	}
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != domain.RoleResearcher || !u.HasInvitation() {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func validEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if email == "" {
		return "", &ValidationError{Fields: map[string]string{"email": "is required"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &ValidationError{Fields: map[string]string{"email": "is not a valid address"}}
	}
	return email, nil
}
