package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/mail"
	"github.com/Raymond-engr/DRID-Research/internal/portal/uploads"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
)

type Config struct {
	Issuer   string   `env:"PORTAL_ISSUER" envDefault:"research-portal"`
	Audience []string `env:"PORTAL_AUDIENCE" envDefault:"research-portal" envSeparator:","`

	DatabaseFile   string `env:"PORTAL_DATABASE_FILE" envDefault:"portal.db"`
	PepperFile     string `env:"PORTAL_PEPPER_FILE" envDefault:"pepper"`
	SigningKeyFile string `env:"PORTAL_SIGNING_KEY_FILE"` // empty: ephemeral key

	AccessTTL    time.Duration `env:"PORTAL_ACCESS_TTL"`
	RefreshTTL   time.Duration `env:"PORTAL_REFRESH_TTL"`
	InviteTTL    time.Duration `env:"PORTAL_INVITE_TTL"`
	CookieSecure bool          `env:"PORTAL_COOKIE_SECURE" envDefault:"true"`
	MFAIssuer    string        `env:"PORTAL_MFA_ISSUER" envDefault:"Research Portal"`

	// Browser origins allowed to call the API with credentials. FRONTEND_URL
	// is always included.
	AllowedOrigins []string `env:"PORTAL_ALLOWED_ORIGINS" envSeparator:","`

	MaxLoginFailures int           `env:"PORTAL_MAX_LOGIN_FAILURES"`
	LockoutWindow    time.Duration `env:"PORTAL_LOCKOUT_WINDOW"`
	RedisURL         string        `env:"REDIS_URL"` // empty: in-memory attempt counters

	UploadsDir string `env:"PORTAL_UPLOADS_DIR" envDefault:"uploads"`

	Mail mail.Config
	S3   uploads.S3Config

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads the environment, fills defaults and validates.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if c.InviteTTL <= 0 {
		c.InviteTTL = domain.DefaultInvitationTTL
	}
	if c.MaxLoginFailures <= 0 {
		c.MaxLoginFailures = 5
	}
	if c.LockoutWindow <= 0 {
		c.LockoutWindow = 15 * time.Minute
	}
	if c.Mail.FrontendURL != "" {
		origin := strings.TrimRight(c.Mail.FrontendURL, "/")
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			origin = u.Scheme + "://" + u.Host
		}
		c.AllowedOrigins = append(c.AllowedOrigins, origin)
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("PORTAL_ISSUER must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, fmt.Errorf("PORTAL_ACCESS_TTL (%s) must be shorter than PORTAL_REFRESH_TTL (%s)", c.AccessTTL, c.RefreshTTL))
	}
	if c.RefreshTTL >= c.InviteTTL {
		errs = append(errs, fmt.Errorf("PORTAL_REFRESH_TTL (%s) must be shorter than PORTAL_INVITE_TTL (%s)", c.RefreshTTL, c.InviteTTL))
	}
	if c.Mail.Host != "" && (c.Mail.From == "" || c.Mail.FrontendURL == "") {
		errs = append(errs, errors.New("EMAIL_FROM and FRONTEND_URL are required when SMTP_HOST is set"))
	}
	if c.Env == "prod" && !c.CookieSecure {
		errs = append(errs, errors.New("PORTAL_COOKIE_SECURE cannot be disabled in prod"))
	}

	return errors.Join(errs...)
}
