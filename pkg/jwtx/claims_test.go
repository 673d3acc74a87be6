package jwtx_test

import (
	"testing"
	"time"

	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://portal.test"

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer}}

	require.NoError(t, c.ValidateIssuer(testIssuer))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"portal", "admin"}}}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"portal"}))
	})

	t.Run("any match is enough", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"foo", "admin"}))
	})

	t.Run("no match", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateAudience([]string{"billing"}), jwtx.ErrAudience)
	})

	t.Run("nothing expected", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims("user-1", "a@b.c", "admin", []string{"pwd"}, time.Minute, testIssuer, nil, now)

	require.NoError(t, c.ValidateExpiryAt(now))
	require.NoError(t, c.ValidateExpiryAt(now.Add(59*time.Second)))
	require.ErrorIs(t, c.ValidateExpiryAt(now.Add(time.Minute)), jwtx.ErrExpired, "expired exactly at exp")
	require.ErrorIs(t, c.ValidateExpiryAt(now.Add(-time.Second)), jwtx.ErrNotYetValid)
}

func TestNewAccessClaims(t *testing.T) {
	now := time.Now().UTC()
	c := jwtx.NewAccessClaims("user-1", "r@uni.edu", "researcher", []string{"pwd"}, jwtx.DefaultAccessTokenTTL, testIssuer, []string{"portal"}, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "r@uni.edu", c.Email)
	require.Equal(t, "researcher", c.Role)
	require.Equal(t, testIssuer, c.Issuer)
	require.NotEmpty(t, c.ID)
	require.WithinDuration(t, now.Add(15*time.Minute), c.ExpiresAt.Time, time.Second)
	require.True(t, c.HasMethod("pwd"))
	require.False(t, c.HasMethod("otp"))
}
