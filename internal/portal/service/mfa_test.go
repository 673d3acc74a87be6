package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/pkg/idx"
)

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period: totpOpts.Period, Digits: totpOpts.Digits, Algorithm: totpOpts.Algorithm,
	})
	require.NoError(t, err)
	return code
}

func TestMFA_EnrollVerifyDisable(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	st := newTestStore(t)
	svc := &MFAService{Store: st, Issuer: "Research Portal", Now: c.Now}

	admin := domain.User{ID: idx.New().String(), Email: "boss@uni.edu", Role: domain.RoleAdmin, IsActive: true}
	require.NoError(t, st.Users().CreateUser(ctx, admin))

	require.ErrorIs(t, svc.Verify(ctx, admin.ID, "123456"), ErrMFANotEnrolled)
	require.ErrorIs(t, svc.Disable(ctx, admin.ID, "123456"), ErrMFANotEnabled)

	enr, err := svc.Enroll(ctx, admin.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enr.Secret)
	require.Contains(t, enr.OTPAuthURL, "otpauth://totp/")

	require.ErrorIs(t, svc.Verify(ctx, admin.ID, "000000"), ErrInvalidTOTPCode)
	require.NoError(t, svc.Verify(ctx, admin.ID, codeAt(t, enr.Secret, c.Now())))

	u, err := st.Users().GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	require.True(t, u.MFAEnabled())

	_, err = svc.Enroll(ctx, admin.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)

	c.Advance(time.Minute)
	require.ErrorIs(t, svc.Disable(ctx, admin.ID, "000000"), ErrInvalidTOTPCode)
	require.NoError(t, svc.Disable(ctx, admin.ID, codeAt(t, enr.Secret, c.Now())))

	u, err = st.Users().GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	require.False(t, u.MFAEnabled())
}

func TestMFA_AdminOnly(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MFAService{Store: st, Issuer: "Research Portal"}

	r := domain.User{ID: idx.New().String(), Email: "ada@uni.edu", Role: domain.RoleResearcher, IsActive: true}
	require.NoError(t, st.Users().CreateUser(ctx, r))

	_, err := svc.Enroll(ctx, r.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Enroll(ctx, idx.New().String())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidTOTP(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	now := newClock().Now()

	require.True(t, validTOTP(secret, codeAt(t, secret, now), now))
	require.True(t, validTOTP(secret, codeAt(t, secret, now.Add(-30*time.Second)), now), "one step of skew")
	require.False(t, validTOTP(secret, codeAt(t, secret, now.Add(-5*time.Minute)), now))
	require.False(t, validTOTP("", "123456", now))
	require.False(t, validTOTP(secret, " ", now))
}
