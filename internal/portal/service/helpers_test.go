package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/store/drivers/sqlite"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	To        string
	Token     string
	Name      string
	Password  string
	ExpiresAt time.Time
}

type fakeMailer struct {
	mu          sync.Mutex
	invitations []sentMail
	credentials []sentMail
	fail        bool
}

func (m *fakeMailer) SendInvitation(_ context.Context, to, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.invitations = append(m.invitations, sentMail{To: to, Token: token, ExpiresAt: expiresAt})
	return nil
}

func (m *fakeMailer) SendCredentials(_ context.Context, to, name, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.credentials = append(m.credentials, sentMail{To: to, Name: name, Password: password})
	return nil
}

func (m *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.invitations)
	return m.invitations[len(m.invitations)-1].Token
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHasher(t *testing.T) *cryptox.PasswordHasher {
	t.Helper()
	h, err := cryptox.NewPasswordHasher([]byte("test-pepper-0123456789abcdef"))
	require.NoError(t, err)
	return h
}
