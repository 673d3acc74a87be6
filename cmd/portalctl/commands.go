package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store/drivers/sqlite"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// Test seams for the terminal.
var (
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword    = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

type common struct {
	db            string
	pepper        string
	email         string
	passwordStdin bool
	logLevel      string
}

func (c *common) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.db, "db", envOr("PORTAL_DATABASE_FILE", "portal.db"), "SQLite database file")
	fs.StringVar(&c.pepper, "pepper", envOr("PORTAL_PEPPER_FILE", "pepper"), "password pepper file shared with the server")
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from standard input")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// open returns an account service over the database in c.db. The caller
// closes the returned store.
func (c *common) open(stderr io.Writer) (*service.AccountService, *sqlite.Store, error) {
	slogx.New(slogx.Config{Service: "portalctl", Level: c.logLevel, Format: "text", Output: stderr})

	pepper, err := cryptox.LoadOrCreatePepper(c.pepper)
	if err != nil {
		return nil, nil, fmt.Errorf("load pepper: %w", err)
	}
	hasher, err := cryptox.NewPasswordHasher(pepper)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.db))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &service.AccountService{Store: db, Hasher: hasher}, db, nil
}

func (c *common) password(stdin io.Reader, stderr io.Writer) (string, error) {
	if c.passwordStdin || !stdinIsTerminal() {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(stderr, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(stderr, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(stderr)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func createAdmin(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var c common
	var name string

	fs := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	c.addFlags(fs)
	fs.StringVarP(&name, "name", "n", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.email == "" {
		return errors.New("--email is required")
	}

	pw, err := c.password(stdin, stderr)
	if err != nil {
		return err
	}

	accounts, db, err := c.open(stderr)
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := accounts.CreateAdmin(context.Background(), c.email, name, pw)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(stdout, "created administrator %s (%s)\n", u.Email, u.ID)
	return nil
}

func resetPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var c common

	fs := pflag.NewFlagSet("reset-password", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	c.addFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.email == "" {
		return errors.New("--email is required")
	}

	pw, err := c.password(stdin, stderr)
	if err != nil {
		return err
	}

	accounts, db, err := c.open(stderr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := accounts.ResetPassword(context.Background(), c.email, pw); err != nil {
		return describe(err)
	}

	fmt.Fprintf(stdout, "password reset for %s; all sessions ended\n", strings.ToLower(strings.TrimSpace(c.email)))
	return nil
}

func describe(err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		var parts []string
		for _, field := range slices.Sorted(maps.Keys(ve.Fields)) {
			parts = append(parts, field+" "+ve.Fields[field])
		}
		return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
	case errors.Is(err, service.ErrConflict):
		return errors.New("an account with this email already exists")
	case errors.Is(err, service.ErrNotFound):
		return errors.New("no active account with this email")
	}
	return err
}
