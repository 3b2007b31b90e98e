package main

import (
	"flag"
	"fmt"
	"strings"
)

func loginSmokeCmd(apiURL string, args []string) error {
	fs := flag.NewFlagSet("login-smoke", flag.ExitOnError)
	password := fs.String("password", demoPassword, "Password the demo users were seeded with")
	fs.Parse(args)

	client := NewAPIClient(strings.TrimRight(apiURL, "/"))

	fmt.Printf("Testing %d seeded users against %s/auth/login\n\n", len(demoUsers), apiURL)

	failed := 0
	for _, du := range demoUsers {
		fmt.Printf("- %s (%s) -> ", du.Email, du.Role.UserType())

		r := client.Login(du.Email, *password)
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("FAILED\n  Error: %v\n", r.Err)
		case r.Auth == nil:
			failed++
			code := "unknown"
			if r.Error != nil {
				code = r.Error.Code
			}
			fmt.Printf("HTTP %d %s\n", r.Status, code)
		default:
			fmt.Printf("HTTP %d ok\n", r.Status)
			fmt.Printf("  user: %s role=%s userType=%s\n", r.Auth.User.Email, r.Auth.User.Role, r.Auth.User.UserType)
			fmt.Printf("  tokens: access=%t refreshId=%s\n", r.Auth.Tokens.AccessToken != "", r.Auth.Tokens.RefreshTokenID)
		}
	}

	fmt.Println()
	fmt.Printf("%d/%d logins succeeded\n", len(demoUsers)-failed, len(demoUsers))
	if failed > 0 {
		return fmt.Errorf("%d logins failed", failed)
	}
	return nil
}
