package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/idx"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// LoginRequest is one sign-in attempt against a role specific endpoint.
type LoginRequest struct {
	Role     domain.Role
	Email    string
	Password string
	OTP      string // only consulted for administrators with TOTP enabled
}

// CredentialService authenticates accounts and manages their sessions.
type CredentialService struct {
	Store    store.Store
	Keys     *jwtx.KeyManager
	Hasher   *cryptox.PasswordHasher
	Attempts AttemptLimiter // optional

	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// ReuseGrace is how long after a rotation the replaced credential may
	// be presented again without being treated as stolen. Zero uses
	// DefaultReuseGrace; negative disables the grace.
	ReuseGrace time.Duration

	Now func() time.Time
}

// DefaultReuseGrace covers two clients sharing one cookie that refresh at
// the same moment.
const DefaultReuseGrace = 30 * time.Second

func (s *CredentialService) reuseGrace() time.Duration {
	if s.ReuseGrace == 0 {
		return DefaultReuseGrace
	}
	return max(s.ReuseGrace, 0)
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Login verifies the request and opens a session. Unknown emails, inactive
// accounts, the wrong role and a wrong password are all reported as
// ErrInvalidCredentials after the same amount of hashing work.
func (s *CredentialService) Login(ctx context.Context, req LoginRequest) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	email := normalizeEmail(req.Email)
	fe := fieldErrors{}
	if email == "" {
		fe.add("email", "is required")
	}
	if req.Password == "" {
		fe.add("password", "is required")
	}
	if !req.Role.Valid() {
		fe.add("role", "is invalid")
	}
	if err := fe.err(); err != nil {
		return domain.Session{}, err
	}

	// 1. Refuse early while the email is locked out.
	if s.Attempts != nil {
		wait, err := s.Attempts.Locked(ctx, email)
		if err != nil {
			return domain.Session{}, err
		}
		if wait > 0 {
			log.Warn("login refused while locked", slogx.Email("email", email))
			return domain.Session{}, &LockedError{RetryAfter: wait}
		}
	}

	// 2. Look up the account. Hashing still happens when it is missing.
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to load user for login", slog.Any("error", err))
		return domain.Session{}, err
	}
	found := err == nil

	var pwErr error
	if found && u.PasswordHash != "" {
		pwErr = s.Hasher.Verify(req.Password, u.PasswordHash)
	} else {
		pwErr = s.Hasher.VerifyDummy(req.Password)
	}

	// 3. Every failure below looks identical to the caller.
	if pwErr != nil || !u.IsActive || u.Role != req.Role {
		s.fail(ctx, email)
		log.Info("login rejected",
			slogx.Email("email", email),
			slog.String("role", req.Role.String()),
			slog.Bool("known", found),
		)
		return domain.Session{}, ErrInvalidCredentials
	}

	// 4. Second factor for administrators that enabled it.
	amr := []string{"pwd"}
	if u.MFAEnabled() {
		if strings.TrimSpace(req.OTP) == "" {
			return domain.Session{}, ErrOTPRequired
		}
		if !validTOTP(*u.MFASecret, req.OTP, s.now()) {
			s.fail(ctx, email)
			log.Info("login rejected: bad one-time code", slog.String("user_id", u.ID))
			return domain.Session{}, ErrInvalidCredentials
		}
		amr = append(amr, "otp")
	}

	// 5. Open the session.
	sess, err := s.issue(ctx, s.Store, u, amr)
	if err != nil {
		return domain.Session{}, err
	}

	if s.Attempts != nil {
		_ = s.Attempts.Reset(ctx, email)
	}
	if err := s.Store.Users().TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		log.Warn("failed to record last login", slog.Any("error", err))
	}

	log.Info("login succeeded",
		slog.String("user_id", u.ID),
		slog.String("role", u.Role.String()),
	)
	return sess, nil
}

func (s *CredentialService) fail(ctx context.Context, email string) {
	if s.Attempts == nil {
		return
	}
	if err := s.Attempts.Fail(ctx, email); err != nil {
		slogx.FromContext(ctx).Warn("failed to record login failure", slog.Any("error", err))
	}
}

// VerifyToken resolves an access token to its live account.
func (s *CredentialService) VerifyToken(ctx context.Context, accessToken string) (domain.User, error) {
	if accessToken == "" {
		return domain.User{}, ErrUnauthorized
	}

	claims, err := s.Keys.Verifier.Verify(accessToken)
	if err != nil {
		slogx.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return domain.User{}, ErrUnauthorized
	}
	return s.liveUser(ctx, claims.Subject, claims.Role)
}

// liveUser loads an account and checks it can still hold a session.
func (s *CredentialService) liveUser(ctx context.Context, id, role string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, err
	}
	if !u.IsActive || (role != "" && u.Role.String() != role) {
		return domain.User{}, ErrUnauthorized
	}
	return u, nil
}

// Refresh exchanges a refresh credential for a new session. The presented
// credential is revoked and replaced in the same transaction. Presenting an
// already revoked credential revokes every session of its account, unless it
// was revoked within ReuseGrace, in which case only this request fails.
func (s *CredentialService) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	if refreshToken == "" {
		return domain.Session{}, ErrSessionExpired
	}
	hash := cryptox.FingerprintToken(refreshToken)

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrSessionExpired
	}
	if err != nil {
		log.Error("failed to load refresh token", slog.Any("error", err))
		return domain.Session{}, err
	}

	now := s.now()
	if rt.Revoked {
		if rt.RevokedAt != nil && now.Sub(*rt.RevokedAt) < s.reuseGrace() {
			log.Info("recently rotated refresh token presented", slog.String("user_id", rt.UserID))
			return domain.Session{}, ErrSuperseded
		}
		log.Warn("revoked refresh token presented, revoking all sessions",
			slog.String("user_id", rt.UserID),
		)
		if err := s.Store.RefreshTokens().RevokeAllForUser(ctx, rt.UserID); err != nil {
			log.Error("failed to revoke sessions", slog.Any("error", err))
		}
		return domain.Session{}, ErrSessionExpired
	}
	if !rt.Usable(now) {
		return domain.Session{}, ErrSessionExpired
	}

	u, err := s.liveUser(ctx, rt.UserID, "")
	if errors.Is(err, ErrUnauthorized) {
		return domain.Session{}, ErrSessionExpired
	}
	if err != nil {
		return domain.Session{}, err
	}

	var sess domain.Session
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionExpired
			}
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		var err error
		sess, err = s.issue(ctx, tx, u, rt.AMR)
		return err
	})
	if errors.Is(err, ErrSessionExpired) {
		return domain.Session{}, err
	}
	if err != nil {
		log.Error("failed to rotate refresh token", slog.Any("error", err))
		return domain.Session{}, err
	}

	log.Debug("session refreshed", slog.String("user_id", u.ID))
	return sess, nil
}

// Logout revokes the refresh credential. Unknown or empty credentials are
// not an error.
func (s *CredentialService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken), s.now())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Error("failed to revoke refresh token", slog.Any("error", err))
		return err
	}
	return nil
}

// issue signs an access token and stores a new refresh credential through
// st, which may be a transaction.
func (s *CredentialService) issue(ctx context.Context, st store.Store, u domain.User, amr []string) (domain.Session, error) {
	now := s.now()

	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	claims := jwtx.NewAccessClaims(u.ID, u.Email, u.Role.String(), amr, accessTTL, s.Issuer, s.Audience, now)
	access, err := s.Keys.Signer.Sign(claims)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		AMR:       amr,
		ExpiresAt: now.Add(refreshTTL),
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return domain.Session{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.Session{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: rt.ExpiresAt,
		User:             u,
	}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
