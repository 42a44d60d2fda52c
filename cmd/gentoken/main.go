// cmd/gentoken prints a signed access token for local development.
// Tokens are normally issued by the auth service; this one uses JWT_SECRET.
// Usage: go run ./cmd/gentoken -employee <uuid> [-name Joana] [-ttl 12h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	employee := flag.String("employee", "", "employee id")
	name := flag.String("name", "", "employee name")
	role := flag.String("role", "waiter", "employee role")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if _, err := uuid.Parse(*employee); err != nil {
		fmt.Fprintln(os.Stderr, "-employee must be a uuid")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JWTClaims{
		EmployeeID: *employee,
		Name:       *name,
		Role:       *role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
