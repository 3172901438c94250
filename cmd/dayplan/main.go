package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dohr-michael/dayplan/cmd/commands"
	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/secrets"
)

func main() {
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	if secrets.HasEncryptedEnv() {
		revealSecrets()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func revealSecrets() {
	box, err := secrets.LoadBox(secrets.KeyPath(), false)
	if err != nil {
		slog.Warn("encrypted secrets present but no key", "error", err)
		return
	}
	if _, err := secrets.RevealEnv(box); err != nil {
		slog.Warn("failed to decrypt secrets", "error", err)
	}
}
