// portalctl provisions research portal accounts directly against the
// database. It is meant for first-time setup and account recovery when no
// administrator can sign in.
//
//	portalctl create-admin --email ada@uni.edu --name "Ada Admin"
//	portalctl reset-password --email ada@uni.edu
//
// The password is prompted for on the terminal. With --password-stdin it is
// read as a single line from standard input instead.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("missing command")
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(args[1:], stdin, stdout, stderr)
	case "reset-password":
		return resetPassword(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: portalctl <command> [flags]

Commands:
  create-admin     create an active administrator account
  reset-password   set a new password and end all sessions of an account

Run "portalctl <command> --help" for the flags of a command.
`)
}
