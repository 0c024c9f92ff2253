// Command bankctl is the operator CLI for user administration and
// migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirasaad/bankledger/infra"
	"github.com/amirasaad/bankledger/infra/initializer"
	"github.com/amirasaad/bankledger/pkg/app"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	usersvc "github.com/amirasaad/bankledger/pkg/service/user"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/term"
)

const usage = `Usage: bankctl <command> [arguments]

Commands:
  promote <email>                            grant ADMIN to a user
  block-user <email>                         refuse further logins for a user
  accounts <email>                           list a user's accounts
  create-admin <first> <last> <email> <phone> create an ADMIN (password is prompted)
  whoami <token>                             show who an API token resolves to
  migrate                                    apply database migrations`

// operator is the principal the CLI acts as.
var operator = domain.Principal{ID: uuid.Nil, Role: domain.RoleAdmin}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if args[0] == "migrate" {
		return migrate(cfg)
	}
	res, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return err
	}
	defer res.Close() //nolint:errcheck
	c := &cli{core: app.New(res.Deps), out: os.Stdout, readPassword: promptPassword}
	return c.dispatch(context.Background(), args)
}

func migrate(cfg *config.App) error {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return err
	}
	if err := infra.RunMigrations(db, initializer.SetupLogger(cfg.Log)); err != nil {
		return err
	}
	color.Green("migrations applied")
	return nil
}

type cli struct {
	core         *app.App
	out          io.Writer
	readPassword func(prompt string) (string, error)
}

var errUsage = errors.New(usage)

func (c *cli) dispatch(ctx context.Context, args []string) error {
	need := func(n int) error {
		if len(args) < n+1 {
			return errUsage
		}
		return nil
	}
	switch args[0] {
	case "promote":
		if err := need(1); err != nil {
			return err
		}
		u, err := c.core.UserService.Promote(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s is now %s\n", u.Email, color.GreenString(string(u.Role)))
	case "block-user":
		if err := need(1); err != nil {
			return err
		}
		u, err := c.core.UserService.Block(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s is now %s\n", u.Email, color.RedString(string(u.Status)))
	case "accounts":
		if err := need(1); err != nil {
			return err
		}
		return c.accounts(ctx, args[1])
	case "create-admin":
		if err := need(4); err != nil {
			return err
		}
		return c.createAdmin(ctx, args[1], args[2], args[3], args[4])
	case "whoami":
		if err := need(1); err != nil {
			return err
		}
		return c.whoami(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
	return nil
}

func (c *cli) accounts(ctx context.Context, email string) error {
	u, err := c.core.UserService.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	list, err := c.core.AccountService.ListUserAccounts(ctx, operator, u.ID)
	if err != nil {
		return err
	}
	header := color.New(color.Bold, color.Underline)
	header.Fprintf(c.out, "%-36s  %-10s  %-8s  %-3s  %15s  %s\n", //nolint:errcheck
		"ID", "NUMBER", "TYPE", "CUR", "BALANCE", "STATUS")
	for _, a := range list {
		fmt.Fprintf(c.out, "%-36s  %-10s  %-8s  %-3s  %15s  %s\n",
			a.ID, utils.MaskAccountNumber(a.Number), a.Type, a.Currency,
			a.Balance.StringFixed(2), statusColor(a.Status))
	}
	fmt.Fprintf(c.out, "%d account(s)\n", len(list))
	return nil
}

func statusColor(s account.Status) string {
	switch s {
	case account.StatusActive:
		return color.GreenString(string(s))
	case account.StatusBlocked:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}

func (c *cli) createAdmin(ctx context.Context, first, last, email, phone string) error {
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	repeat, err := c.readPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != repeat {
		return errors.New("passwords do not match")
	}
	u, err := c.core.UserService.CreateAdmin(ctx, usersvc.Registration{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
		Password:  password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created admin %s (%s)\n", u.Email, u.ID)
	return nil
}

func (c *cli) whoami(ctx context.Context, token string) error {
	p, err := c.core.AuthService.Authenticate(ctx, strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if err != nil {
		return err
	}
	u, err := c.core.UserService.Me(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s (%s) role=%s status=%s\n",
		u.ID, u.Email, u.FullName(), color.CyanString(string(p.Role)), u.Status)
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
