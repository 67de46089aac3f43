// Package fitctl implements the fitkeeper admin command line. It talks to
// the configured store directly, bypassing the HTTP API.
package fitctl

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/flagx"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/repositories"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// openManager is a test seam for repositories.Open.
var openManager = repositories.Open

const usage = `usage: fitctl <command> [flags]

commands:
  create-admin -username <name>   create an admin account, or promote an existing one
  version                         print build information
`

var ErrUsage = errors.New("invalid usage")

// Run executes the command named by args[0] against the store of cfg.
func Run(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(w, usage)
		return ErrUsage
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(ctx, cfg, args[1:], w)
	case "version":
		fmt.Fprintln(w, BuildInfo().String())
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(w, usage)
		return nil
	}

	fmt.Fprintf(w, "unknown command %q\n\n%s", args[0], usage)
	return ErrUsage
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(w)
	username := fs.String("username", "", "admin username")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-username", "--username"})); err != nil {
		return err
	}
	if *username == "" {
		fmt.Fprint(w, usage)
		return ErrUsage
	}

	password, err := getPassword(w, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(w, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	m, err := openManager(cfg)
	if err != nil {
		return fmt.Errorf("store init error: %w", err)
	}
	defer m.Close()

	res := services.NewResources(m)
	us := services.NewUserService(m.Users, m.Memberships, res.Users, cfg)

	u, created, err := us.EnsureAdmin(ctx, *username, string(password))
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(w, "Admin %s created, id=%s\n", u.Username, u.ID)
	} else {
		fmt.Fprintf(w, "User %s promoted to admin, id=%s\n", u.Username, u.ID)
	}
	return nil
}

// getPassword reads a password from the terminal without echo.
func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
