package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInvitationURL(t *testing.T) {
	require.Equal(t, "https://portal.uni.edu/researcher-register/abc123",
		InvitationURL("https://portal.uni.edu/", "abc123"))
	require.Equal(t, "http://localhost:3000/researcher-register/abc",
		InvitationURL("http://localhost:3000", "abc"))
}

func TestRenderInvitation(t *testing.T) {
	expires := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	body, err := render(invitationTmpl, newInvitationData("https://portal.uni.edu", "tok", expires))
	require.NoError(t, err)
	require.Contains(t, body, `href="https://portal.uni.edu/researcher-register/tok"`)
	require.Contains(t, body, "1 April 2026 12:00 UTC")
}

func TestRenderCredentials_Escapes(t *testing.T) {
	body, err := render(credentialsTmpl, credentialsData{
		Name:     "<b>Ada</b>",
		Email:    "ada@uni.edu",
		Password: "Abc123def456",
		URL:      "https://portal.uni.edu/researcher-login",
	})
	require.NoError(t, err)
	require.Contains(t, body, "&lt;b&gt;Ada&lt;/b&gt;")
	require.Contains(t, body, "Abc123def456")
}

func TestNewSMTPMailer_RequiresConfig(t *testing.T) {
	_, err := NewSMTPMailer(Config{})
	require.Error(t, err)

	_, err = NewSMTPMailer(Config{Host: "smtp.uni.edu", Port: 587})
	require.Error(t, err)

	m, err := NewSMTPMailer(Config{
		Host: "smtp.uni.edu", Port: 587, From: "portal@uni.edu",
		FrontendURL: "https://portal.uni.edu", Timeout: time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestLogMailer_NeverLogsSecrets(t *testing.T) {
	var buf bytes.Buffer
	m := LogMailer{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	ctx := context.Background()
	require.NoError(t, m.SendInvitation(ctx, "ada@uni.edu", "secret-token", time.Now()))
	require.NoError(t, m.SendCredentials(ctx, "ada@uni.edu", "Ada", "secret-password"))

	out := buf.String()
	require.NotContains(t, out, "secret-token")
	require.NotContains(t, out, "secret-password")
	require.NotContains(t, out, "ada@uni.edu")
	require.Contains(t, out, invitationSubject)
}
