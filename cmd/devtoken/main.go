package main

import (
	"fmt"
	"os"
	"time"

	"magit/config"
	"magit/domain"
	httpLayer "magit/http"
)

// Prints a bearer token for local testing, signed with JWT_SECRET.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./cmd/devtoken <user-id> [user|admin]")
		os.Exit(2)
	}
	role := domain.RoleUser
	if len(os.Args) > 2 {
		role = domain.Role(os.Args[2])
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	token, err := httpLayer.NewAuthenticator(cfg.Auth.JWTSecret).IssueToken(os.Args[1], role, 24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
