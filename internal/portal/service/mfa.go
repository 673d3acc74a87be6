package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid TOTP code")
	ErrMFANotEnrolled    = errors.New("TOTP enrollment not started")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this account")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this account")
)

var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// validTOTP checks code against secret at now, allowing one step of skew.
func validTOTP(secret, code string, now time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totpOpts)
	return err == nil && ok
}

// MFAEnrollment is shown to an administrator once so an authenticator app
// can be configured.
type MFAEnrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// MFAService manages optional TOTP second factors for administrator
// accounts.
type MFAService struct {
	Store  store.Store
	Issuer string // shown in authenticator apps
	Now    func() time.Time
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Enroll generates a new secret. MFA stays disabled until Verify succeeds.
func (s *MFAService) Enroll(ctx context.Context, userID string) (MFAEnrollment, error) {
	u, err := s.admin(ctx, userID)
	if err != nil {
		return MFAEnrollment{}, err
	}
	if u.MFAEnabled() {
		return MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, u.ID, key.Secret()); err != nil {
		return MFAEnrollment{}, fmt.Errorf("store TOTP secret: %w", err)
	}

	slogx.FromContext(ctx).Info("totp enrollment started", slog.String("user_id", u.ID))
	return MFAEnrollment{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// Verify confirms the authenticator is set up and turns MFA on.
func (s *MFAService) Verify(ctx context.Context, userID, code string) error {
	u, err := s.admin(ctx, userID)
	if err != nil {
		return err
	}
	if u.MFAEnabled() {
		return ErrMFAAlreadyEnabled
	}
	if u.MFASecret == nil {
		return ErrMFANotEnrolled
	}

	now := s.now()
	if !validTOTP(*u.MFASecret, code, now) {
		return ErrInvalidTOTPCode
	}
	if err := s.Store.Users().EnableMFA(ctx, u.ID, now); err != nil {
		return fmt.Errorf("enable MFA: %w", err)
	}

	slogx.FromContext(ctx).Info("totp enabled", slog.String("user_id", u.ID))
	return nil
}

// Disable turns MFA off. A current code is required.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	u, err := s.admin(ctx, userID)
	if err != nil {
		return err
	}
	if !u.MFAEnabled() {
		return ErrMFANotEnabled
	}
	if !validTOTP(*u.MFASecret, code, s.now()) {
		return ErrInvalidTOTPCode
	}
	if err := s.Store.Users().DisableMFA(ctx, u.ID); err != nil {
		return fmt.Errorf("disable MFA: %w", err)
	}

	slogx.FromContext(ctx).Info("totp disabled", slog.String("user_id", u.ID))
	return nil
}

func (s *MFAService) admin(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != domain.RoleAdmin || !u.IsActive {
		return domain.User{}, ErrForbidden
	}
	return u, nil
}
