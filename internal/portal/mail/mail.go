// Package mail delivers invitation and credential emails.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// Config is read from the SMTP_* environment.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Secure   bool   `env:"SMTP_SECURE" envDefault:"false"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"EMAIL_FROM"`

	FrontendURL string        `env:"FRONTEND_URL"`
	Timeout     time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
}

// InvitationURL is the registration link embedded in invitation emails.
func InvitationURL(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/researcher-register/" + url.PathEscape(token)
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	cfg    Config
	client *gomail.Client
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail: SMTP_HOST is required")
	}
	if cfg.From == "" || cfg.FrontendURL == "" {
		return nil, fmt.Errorf("mail: EMAIL_FROM and FRONTEND_URL are required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Secure {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create client: %w", err)
	}
	return &SMTPMailer{cfg: cfg, client: client}, nil
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, to, token string, expiresAt time.Time) error {
	body, err := render(invitationTmpl, newInvitationData(m.cfg.FrontendURL, token, expiresAt))
	if err != nil {
		return fmt.Errorf("mail: render invitation: %w", err)
	}
	return m.send(ctx, to, invitationSubject, body)
}

func (m *SMTPMailer) SendCredentials(ctx context.Context, to, name, password string) error {
	body, err := render(credentialsTmpl, credentialsData{
		Name:     name,
		Email:    to,
		Password: password,
		URL:      strings.TrimRight(m.cfg.FrontendURL, "/") + "/researcher-login",
	})
	if err != nil {
		return fmt.Errorf("mail: render credentials: %w", err)
	}
	return m.send(ctx, to, credentialsSubject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}

	slogx.FromContext(ctx).Debug("email sent", slogx.Email("to", to), slog.String("subject", subject))
	return nil
}

// LogMailer records that a message would have been sent. It is used when
// no SMTP relay is configured. Tokens and passwords are never logged.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendInvitation(ctx context.Context, to, _ string, expiresAt time.Time) error {
	m.logger(ctx).Info("email not sent: no SMTP relay configured",
		slogx.Email("to", to),
		slog.String("subject", invitationSubject),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

func (m LogMailer) SendCredentials(ctx context.Context, to, _, _ string) error {
	m.logger(ctx).Info("email not sent: no SMTP relay configured",
		slogx.Email("to", to),
		slog.String("subject", credentialsSubject),
	)
	return nil
}

func (m LogMailer) logger(ctx context.Context) *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slogx.FromContext(ctx)
}
