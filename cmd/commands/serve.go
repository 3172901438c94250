package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/gateway"
	"github.com/dohr-michael/dayplan/internal/heartbeat"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the dayplan HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	slog.Info("generation tiers",
		"primary", cfg.Generation.Primary.Driver,
		"models", a.registry.Names(),
		"locale", a.locale,
	)

	server := gateway.NewServer(a.bus, a.orchestrator, a.persister, cfg.Gateway.Host, cfg.Gateway.Port)
	server.SetAssistant(a.assistant)

	hb := heartbeat.NewWriter(config.HeartbeatPath(), heartbeat.Info{
		Addr:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Primary: cfg.Generation.Primary.Driver,
		Locale:  string(a.locale),
	})
	defer hb.Track(a.bus)()
	if err := hb.Start(); err != nil {
		slog.Warn("heartbeat disabled", "error", err)
	}
	defer hb.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
