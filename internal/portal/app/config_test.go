package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "research-portal", cfg.Issuer)
	require.Equal(t, []string{"research-portal"}, cfg.Audience)
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, cfg.AccessTTL)
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, cfg.RefreshTTL)
	require.Equal(t, domain.DefaultInvitationTTL, cfg.InviteTTL)
	require.Equal(t, 5, cfg.MaxLoginFailures)
	require.Equal(t, 15*time.Minute, cfg.LockoutWindow)
	require.Equal(t, 587, cfg.Mail.Port)
	require.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PORTAL_ACCESS_TTL", "5m")
	t.Setenv("PORTAL_REFRESH_TTL", "24h")
	t.Setenv("PORTAL_AUDIENCE", "portal,portal-admin")
	t.Setenv("FRONTEND_URL", "https://research.uni.edu/app/")
	t.Setenv("PORTAL_ALLOWED_ORIGINS", "http://localhost:5173")
	t.Setenv("SMTP_HOST", "smtp.uni.edu")
	t.Setenv("EMAIL_FROM", "portal@uni.edu")
	t.Setenv("UPLOADS_S3_BUCKET", "pictures")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, []string{"portal", "portal-admin"}, cfg.Audience)
	require.Equal(t, []string{"http://localhost:5173", "https://research.uni.edu"}, cfg.AllowedOrigins)
	require.Equal(t, "smtp.uni.edu", cfg.Mail.Host)
	require.Equal(t, "pictures", cfg.S3.Bucket)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Issuer: "portal", Port: 8080, Env: "dev", CookieSecure: true}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"empty issuer", func(c *Config) { c.Issuer = "" }, "PORTAL_ISSUER"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"access not shorter than refresh", func(c *Config) { c.AccessTTL = c.RefreshTTL }, "PORTAL_ACCESS_TTL"},
		{"refresh not shorter than invite", func(c *Config) { c.RefreshTTL = 60 * 24 * time.Hour }, "PORTAL_INVITE_TTL"},
		{"smtp without sender", func(c *Config) { c.Mail.Host = "smtp.uni.edu" }, "EMAIL_FROM"},
		{"insecure cookie in prod", func(c *Config) { c.Env = "prod"; c.CookieSecure = false }, "PORTAL_COOKIE_SECURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
