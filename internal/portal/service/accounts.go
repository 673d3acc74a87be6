package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/idx"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// ResearcherInput is an administrator creating a researcher directly,
// without an invitation.
type ResearcherInput struct {
	Email          string
	Name           string
	Faculty        string
	Bio            string
	Title          string
	ProfilePicture string
}

// AccountService covers account management outside the invitation flow.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Mailer Mailer
	Now    func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// AddResearcher creates an active researcher with a generated password and
// emails the credentials.
func (s *AccountService) AddResearcher(ctx context.Context, in ResearcherInput) (domain.User, error) {
	log := slogx.FromContext(ctx)

	email, err := validEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Faculty = strings.TrimSpace(in.Faculty)

	fe := fieldErrors{}
	if in.Name == "" {
		fe.add("name", "is required")
	}
	if in.Faculty == "" {
		fe.add("faculty", "is required")
	}
	if err := fe.err(); err != nil {
		return domain.User{}, err
	}

	password, err := cryptox.GeneratePassword()
	if err != nil {
		return domain.User{}, err
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:             idx.New().String(),
		Email:          email,
		Name:           in.Name,
		Role:           domain.RoleResearcher,
		PasswordHash:   hash,
		IsActive:       true,
		Faculty:        in.Faculty,
		Bio:            in.Bio,
		Title:          in.Title,
		ProfilePicture: in.ProfilePicture,
		CreatedAt:      s.now(),
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}
	log.Info("researcher created", slog.String("user_id", u.ID), slogx.Email("email", email))

	if err := s.Mailer.SendCredentials(ctx, email, u.Name, password); err != nil {
		log.Error("failed to send credentials", slog.String("user_id", u.ID), slog.Any("error", err))
		return u, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return u, nil
}

// ListResearchers returns active researchers, newest first.
func (s *AccountService) ListResearchers(ctx context.Context) ([]domain.User, error) {
	role := domain.RoleResearcher
	active := true
	return s.Store.Users().ListUsers(ctx, store.UserFilter{Role: &role, Active: &active})
}

// CreateAdmin provisions an administrator. It backs the command line tool;
// there is no HTTP route for it.
func (s *AccountService) CreateAdmin(ctx context.Context, email, name, password string) (domain.User, error) {
	email, err := validEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if err := checkPassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("administrator created", slog.String("user_id", u.ID))
	return u, nil
}

// ResetPassword sets a new password on an active account and ends all of
// its sessions.
func (s *AccountService) ResetPassword(ctx context.Context, email, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return ErrNotFound
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllForUser(ctx, u.ID)
	})
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return &ValidationError{Fields: map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}}
	}
	return nil
}
