package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store/drivers/sqlite"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
)

func fakeTerminal(t *testing.T, answers ...string) {
	t.Helper()
	oldIs, oldRead := stdinIsTerminal, readPassword
	t.Cleanup(func() { stdinIsTerminal, readPassword = oldIs, oldRead })

	stdinIsTerminal = func() bool { return true }
	readPassword = func() ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func notTerminal(t *testing.T) {
	t.Helper()
	old := stdinIsTerminal
	t.Cleanup(func() { stdinIsTerminal = old })
	stdinIsTerminal = func() bool { return false }
}

func paths(t *testing.T) (db, pepper string) {
	dir := t.TempDir()
	return filepath.Join(dir, "portal.db"), filepath.Join(dir, "pepper")
}

func TestCreateAdminFromTerminal(t *testing.T) {
	fakeTerminal(t, "admin-password", "admin-password")
	db, pepper := paths(t)

	var out, errOut bytes.Buffer
	err := run([]string{"create-admin", "--db", db, "--pepper", pepper, "--email", "Ada@Uni.edu", "--name", "Ada"},
		strings.NewReader(""), &out, &errOut)
	require.NoError(t, err)
	require.Contains(t, out.String(), "created administrator ada@uni.edu")

	st, err := sqlite.NewStore("file:" + db)
	require.NoError(t, err)
	defer st.Close()

	u, err := st.Users().GetUserByEmail(context.Background(), "ada@uni.edu")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, u.Role)
	require.True(t, u.IsActive)

	pep, err := cryptox.LoadOrCreatePepper(pepper)
	require.NoError(t, err)
	h, err := cryptox.NewPasswordHasher(pep)
	require.NoError(t, err)
	require.NoError(t, h.Verify("admin-password", u.PasswordHash))
}

func TestCreateAdminPasswordMismatch(t *testing.T) {
	fakeTerminal(t, "admin-password", "admin-passwort")
	db, pepper := paths(t)

	err := run([]string{"create-admin", "--db", db, "--pepper", pepper, "--email", "ada@uni.edu"},
		strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "do not match")
}

func TestCreateAdminDuplicate(t *testing.T) {
	notTerminal(t)
	db, pepper := paths(t)
	args := []string{"create-admin", "--db", db, "--pepper", pepper, "--email", "ada@uni.edu"}

	require.NoError(t, run(args, strings.NewReader("admin-password\n"), &bytes.Buffer{}, &bytes.Buffer{}))
	err := run(args, strings.NewReader("admin-password\n"), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "already exists")
}

func TestCreateAdminValidation(t *testing.T) {
	notTerminal(t)
	db, pepper := paths(t)

	err := run([]string{"create-admin", "--db", db, "--pepper", pepper, "--email", "ada@uni.edu"},
		strings.NewReader("short\n"), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "password")

	err = run([]string{"create-admin", "--db", db, "--pepper", pepper},
		strings.NewReader("admin-password\n"), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "--email")
}

func TestResetPassword(t *testing.T) {
	notTerminal(t)
	db, pepper := paths(t)

	require.NoError(t, run([]string{"create-admin", "--db", db, "--pepper", pepper, "--email", "ada@uni.edu"},
		strings.NewReader("admin-password\n"), &bytes.Buffer{}, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, run([]string{"reset-password", "--db", db, "--pepper", pepper, "--email", "ada@uni.edu", "--password-stdin"},
		strings.NewReader("brand-new-password\n"), &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "password reset for ada@uni.edu")

	err := run([]string{"reset-password", "--db", db, "--pepper", pepper, "--email", "nobody@uni.edu"},
		strings.NewReader("brand-new-password\n"), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "no active account")
}

func TestUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	err := run([]string{"drop-tables"}, strings.NewReader(""), &bytes.Buffer{}, &errOut)
	require.ErrorContains(t, err, "unknown command")
	require.Contains(t, errOut.String(), "Usage: portalctl")

	require.Error(t, run(nil, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
}
