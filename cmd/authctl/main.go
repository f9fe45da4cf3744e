package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yaroher2442/FORTIFIED/internal/common/bootstrap"
	"github.com/Yaroher2442/FORTIFIED/internal/common/config"
	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
	"github.com/Yaroher2442/FORTIFIED/internal/common/db"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
)

const usage = `usage: authctl <command> [flags]

commands:
  migrate                 apply pending schema migrations
  verify-user -email E    mark the account with email E as verified
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, os.Args[2:])
	case "verify-user":
		err = runVerifyUser(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "authctl %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	databaseURL, err := config.LoadDatabaseURL()
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(os.Stderr, "authctl", os.Getenv("LOG_LEVEL"))
	return db.Migrate(ctx, log, databaseURL)
}

func runVerifyUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verify-user", flag.ExitOnError)
	email := fs.String("email", "", "email of the account to verify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Config.StorageDriver != constants.StorageDriverPostgres {
		return fmt.Errorf("verify-user needs persistent storage, STORAGE_DRIVER is %q", app.Config.StorageDriver)
	}

	user, err := app.Service.VerifyUser(ctx, *email)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "user %d (%s) verified\n", user.ID, user.Email)
	return nil
}
