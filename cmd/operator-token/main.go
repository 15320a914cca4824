// Command operator-token mints a bearer token for the admin endpoints.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/loginguard/internal/auth"
	"github.com/BradenHooton/loginguard/internal/config"
	"github.com/BradenHooton/loginguard/internal/models"
)

func main() {
	operator := flag.String("operator", "", "operator name recorded in audit logs")
	expiry := flag.Duration("expiry", time.Hour, "token lifetime")
	flag.Parse()

	if *operator == "" {
		fmt.Fprintln(os.Stderr, "usage: operator-token -operator <name> [-expiry 1h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	token, err := auth.NewTokenManager(cfg.Auth.AdminJWTSecret, *expiry).GenerateOperatorToken(*operator, models.RoleAdmin)
	if err != nil {
		slog.Error("failed to generate token", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println(token)
}
