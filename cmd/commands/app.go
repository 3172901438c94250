package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/assistant"
	"github.com/dohr-michael/dayplan/internal/callbacks"
	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/generation"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/models"
	"github.com/dohr-michael/dayplan/internal/sessions"
	"github.com/dohr-michael/dayplan/internal/storage"
	"github.com/dohr-michael/dayplan/internal/storage/sqlitestore"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg          *config.Config
	locale       duration.Locale
	store        *sqlitestore.Store
	bus          *events.Bus
	eventLog     *storage.EventLogger
	registry     *models.Registry
	orchestrator *generation.Orchestrator
	persister    *sessions.Persister
	assistant    *assistant.Assistant
}

// loadConfig sets up logging and reads the config file, falling back to
// defaults when it is missing.
func loadConfig(cmd *cli.Command) *config.Config {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Debug("config not loaded, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}

	level := parseLevel(cfg.Events.LogLevel)
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, cmd.String("log-format"), level)))
	return cfg
}

func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openApp wires storage, the event bus and the domain services.
func openApp(ctx context.Context, cmd *cli.Command) (*app, error) {
	cfg := loadConfig(cmd)

	store, err := sqlitestore.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		locale:   duration.ParseLocale(cfg.Generation.Locale),
		store:    store,
		bus:      events.NewBus(cfg.Events.BufferSize),
		registry: models.NewRegistry(cfg.Models),
	}
	persisted := make([]events.EventType, 0, len(cfg.Events.Persisted))
	for _, t := range cfg.Events.Persisted {
		persisted = append(persisted, events.EventType(t))
	}
	a.eventLog = storage.NewEventLogger(cfg.Storage.EventLogDir, a.bus, persisted...)

	orchOpts := []generation.Option{
		generation.WithSecondary(generation.LocalGenerator{}),
		generation.WithDefaults(preferencesFrom(cfg.Generation.Preferences)),
		generation.WithLocale(a.locale),
		generation.WithBus(a.bus),
	}
	if primary := a.primaryGenerator(ctx); primary != nil {
		policy := generation.PolicyFrom(cfg.Generation.Primary.Policy, generation.DailyTaskPolicy)
		orchOpts = append(orchOpts, generation.WithPrimary(primary, policy))
	}
	a.orchestrator = generation.NewOrchestrator(store, goals.NewContextBuilder(store), orchOpts...)

	a.persister = sessions.NewPersister(store, store, store, store,
		sessions.WithLocale(a.locale),
		sessions.WithBus(a.bus),
	)

	asOpts := []assistant.Option{
		assistant.WithPolicy(generation.PolicyFrom(cfg.Assistant.Policy, generation.AssistantPolicy)),
		assistant.WithStrategy(assistant.StrategyByName(cfg.Assistant.Strategy)),
		assistant.WithLocale(a.locale),
		assistant.WithBus(a.bus),
	}
	if backend := a.assistantBackend(ctx); backend != nil {
		asOpts = append(asOpts, assistant.WithBackend(backend))
	}
	a.assistant = assistant.New(asOpts...)

	return a, nil
}

// primaryGenerator builds the remote tier. A model that cannot be
// initialized leaves only the local tier.
func (a *app) primaryGenerator(ctx context.Context) generation.Generator {
	p := a.cfg.Generation.Primary
	switch p.Driver {
	case config.DriverWebhook:
		slog.Debug("primary generator: webhook", "url", p.URL)
		return generation.NewWebhookGenerator(p.URL, p.Headers, nil)
	case config.DriverModel:
		chat, err := a.resolveModel(ctx, p.Model)
		if err != nil {
			slog.Warn("primary model unavailable, using local generator only", "model", p.Model, "error", err)
			return nil
		}
		slog.Debug("primary generator: model", "model", p.Model)
		return generation.NewModelGenerator(chat)
	default:
		return nil
	}
}

func (a *app) assistantBackend(ctx context.Context) assistant.Backend {
	as := a.cfg.Assistant
	switch as.Driver {
	case config.DriverWebhook:
		return assistant.NewWebhookBackend(as.URL, nil)
	case config.DriverModel:
		chat, err := a.resolveModel(ctx, as.Model)
		if err != nil {
			slog.Warn("assistant model unavailable, using templated replies", "model", as.Model, "error", err)
			return nil
		}
		return assistant.NewModelBackend(chat, a.locale)
	default:
		return nil
	}
}

// resolveModel resolves a configured chat model and traces its calls on
// the bus.
func (a *app) resolveModel(ctx context.Context, name string) (model.BaseChatModel, error) {
	chat, err := a.registry.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = a.registry.DefaultName()
	}
	return callbacks.Traced(chat, name, callbacks.NewModelCallHandler(a.bus)), nil
}

// Close releases the store and stops the bus.
func (a *app) Close() {
	a.eventLog.Close()
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
}

func preferencesFrom(cfg config.PreferencesConfig) generation.Preferences {
	p := generation.Preferences{
		TaskCount:   cfg.TaskCount,
		MaxDuration: cfg.MaxDuration,
	}
	for _, s := range cfg.Priorities {
		p.Priorities = append(p.Priorities, goals.Priority(s))
	}
	return p.Merge(generation.DefaultPreferences())
}
