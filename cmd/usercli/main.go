// Command usercli changes user roles directly in the credential store.
//
//	usercli promote -email alice@example.com
//	usercli demote -email alice@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cookie-auth/internal/app"
	"cookie-auth/internal/config"
	"cookie-auth/internal/logger"
	"cookie-auth/internal/model"
	"cookie-auth/internal/repository"
	"cookie-auth/internal/service"
)

type storeOpener func(ctx context.Context) (repository.UserStore, func(), error)

var errUsage = errors.New("usage: usercli promote|demote -email <address>")

func main() {
	slog.SetDefault(logger.New(os.Stderr, "warn", "pretty"))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	open := func(ctx context.Context) (repository.UserStore, func(), error) {
		return app.OpenStore(ctx, cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, open); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, open storeOpener) error {
	if len(args) == 0 {
		return errUsage
	}

	var role model.Role
	switch args[0] {
	case "promote":
		role = model.RoleAdmin
	case "demote":
		role = model.RoleUser
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "email of the user to update")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	if *email == "" {
		return fmt.Errorf("-email is required: %w", errUsage)
	}

	store, closeStore, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	user, err := service.ChangeRole(ctx, store, *email, role)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return fmt.Errorf("no user registered with email %q", model.NormalizeEmail(*email))
		}
		return err
	}

	fmt.Fprintf(out, "%s is now %s\n", user.Email, user.Role)
	return nil
}
