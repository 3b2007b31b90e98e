package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edufam/edufam-backend/internal/config"
	"github.com/edufam/edufam-backend/internal/logger"
	"github.com/edufam/edufam-backend/internal/repository/postgres"
	"github.com/edufam/edufam-backend/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:4000/api"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "seed-admin":
		err = withStore(ctx, func(s *store) error { return seedAdminCmd(ctx, s, args) })
	case "seed-demo":
		err = withStore(ctx, func(s *store) error { return seedDemoCmd(ctx, s, args) })
	case "reset-password":
		err = withStore(ctx, func(s *store) error { return resetPasswordCmd(ctx, s, args) })
	case "check-password":
		err = withStore(ctx, func(s *store) error { return checkPasswordCmd(ctx, s, args) })
	case "inspect-user":
		err = withStore(ctx, func(s *store) error { return inspectUserCmd(ctx, s, args) })
	case "login-smoke":
		err = loginSmokeCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`edufamctl - operator tool for the edufam backend

USAGE:
  edufamctl <command> [options]

COMMANDS:
  seed-admin      Create the platform super admin from SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD
  seed-demo       Create "Demo school" with one user per role
  reset-password  Re-hash a user's password
  check-password  Check a password against the stored digest
  inspect-user    Print a user record without its password digest
  login-smoke     Log in as every demo user through the API
  help            Show this help message

ENVIRONMENT:
  DATABASE_URL    Store DSN (same as the server)
  API_URL         Backend API URL for login-smoke (default: http://localhost:4000/api)

EXAMPLES:
  SEED_ADMIN_EMAIL=ops@edufam.org SEED_ADMIN_PASSWORD=... edufamctl seed-admin
  edufamctl reset-password -email=leeroy@gmail.com -password=newsecret1
  edufamctl inspect-user -email=leeroy@gmail.com
  API_URL=https://staging.edufam.org/api edufamctl login-smoke`)
}

// store is what the store-backed commands share.
type store struct {
	users *service.UserService
}

func withStore(ctx context.Context, fn func(*store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	db, err := postgres.NewConnection(ctx, postgres.Options{
		DatabaseURL: cfg.DatabaseURL,
		LogLevel:    cfg.DatabaseLogLevel,
		Attempts:    cfg.DBConnectTries,
		RetryDelay:  cfg.DBConnectRetryDelay(),
	}, log)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	if cfg.DatabaseMigrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	repos := postgres.NewRepositories(db, postgres.ProbeCapabilities(db, log))
	services, err := service.NewServices(repos, cfg, nil, log)
	if err != nil {
		return err
	}

	return fn(&store{users: services.Users})
}

func requireFlag(fs *flag.FlagSet, name, value string) error {
	if value == "" {
		return fmt.Errorf("-%s is required (see edufamctl %s -h)", name, fs.Name())
	}
	return nil
}
