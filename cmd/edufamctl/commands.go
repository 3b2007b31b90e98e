package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/service"
)

func seedAdminCmd(ctx context.Context, s *store, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	firstName := fs.String("first-name", "Super", "First name")
	lastName := fs.String("last-name", "Admin", "Last name")
	fs.Parse(args)

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	user, created, err := s.users.Provision(ctx, service.ProvisionInput{
		Email:     email,
		Password:  password,
		Role:      domain.RoleSuperAdmin,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	if created {
		fmt.Printf("Created admin: %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("Admin already exists: %s (%s)\n", user.Email, user.ID)
	}
	return nil
}

func seedDemoCmd(ctx context.Context, s *store, args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	password := fs.String("password", demoPassword, "Password for every demo user")
	fs.Parse(args)

	fmt.Println("=== Seeding Demo school ===")

	school, err := s.users.EnsureSchool(ctx, demoSchoolName, demoSchoolAddress)
	if err != nil {
		return fmt.Errorf("failed to ensure school: %w", err)
	}
	fmt.Printf("School: %s (%s)\n\n", school.Name, school.ID)

	for _, du := range demoUsers {
		schoolID := &school.ID
		if du.Role.UserType() != domain.UserTypeSchool {
			schoolID = nil
		}

		fmt.Printf("  %-20s %-16s ", du.Email, du.Role)
		user, created, err := s.users.Provision(ctx, service.ProvisionInput{
			Email:     du.Email,
			Password:  *password,
			Role:      du.Role,
			FirstName: du.FirstName,
			SchoolID:  schoolID,
		})
		if err != nil {
			fmt.Println("FAILED")
			return fmt.Errorf("failed to seed %s: %w", du.Email, err)
		}
		if created {
			fmt.Printf("created %s\n", user.ID)
		} else {
			fmt.Printf("exists  %s\n", user.ID)
		}
	}

	fmt.Println()
	fmt.Println("Demo seed complete.")
	return nil
}

func resetPasswordCmd(ctx context.Context, s *store, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	password := fs.String("password", "", "New password")
	activate := fs.Bool("activate", false, "Also mark the account active")
	fs.Parse(args)

	if err := requireFlag(fs, "email", *email); err != nil {
		return err
	}
	if err := requireFlag(fs, "password", *password); err != nil {
		return err
	}

	if err := s.users.ResetPassword(ctx, *email, *password); err != nil {
		return userErr(*email, err)
	}
	if *activate {
		if err := s.users.SetActive(ctx, *email, true); err != nil {
			return userErr(*email, err)
		}
	}

	fmt.Printf("Password reset for %s\n", domain.NormalizeEmail(*email))
	return nil
}

func checkPasswordCmd(ctx context.Context, s *store, args []string) error {
	fs := flag.NewFlagSet("check-password", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	password := fs.String("password", "", "Password to check")
	fs.Parse(args)

	if err := requireFlag(fs, "email", *email); err != nil {
		return err
	}
	if err := requireFlag(fs, "password", *password); err != nil {
		return err
	}

	ok, err := s.users.CheckPassword(ctx, *email, *password)
	if err != nil {
		return userErr(*email, err)
	}

	if !ok {
		fmt.Println("Password does NOT match")
		os.Exit(2)
	}
	fmt.Println("Password matches")
	return nil
}

func inspectUserCmd(ctx context.Context, s *store, args []string) error {
	fs := flag.NewFlagSet("inspect-user", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	fs.Parse(args)

	if err := requireFlag(fs, "email", *email); err != nil {
		return err
	}

	user, err := s.users.Find(ctx, *email)
	if err != nil {
		return userErr(*email, err)
	}

	record := struct {
		domain.UserView
		IsActive bool `json:"isActive"`
	}{UserView: user.View(), IsActive: user.IsActive}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func userErr(email string, err error) error {
	if errors.Is(err, service.ErrUserNotFound) {
		return fmt.Errorf("no user with email %s", domain.NormalizeEmail(email))
	}
	return err
}
