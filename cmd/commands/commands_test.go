package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/generation"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/heartbeat"
	"github.com/dohr-michael/dayplan/internal/storage/sqlitestore"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

func writeTestConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DAYPLAN_PATH", dir)
	dbPath = filepath.Join(dir, "dayplan.db")
	content := fmt.Sprintf(`{
	// local generation only
	"storage": {"path": %q, "event_log_dir": %q},
	"events": {"log_level": "error"}
}`, dbPath, filepath.Join(dir, "logs"))
	configPath = filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, dbPath
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return NewRootCommand().Run(context.Background(), append([]string{"dayplan"}, args...))
}

func TestSeedGenerateAndUpdate(t *testing.T) {
	configPath, dbPath := writeTestConfig(t)
	fixture := filepath.Join("..", "..", "internal", "storage", "sqlitestore", "testdata", "seed.yaml")

	if err := run(t, "--config", configPath, "seed", fixture); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := run(t, "--config", configPath, "generate", "--student", "stu-1", "--save"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	store, err := sqlitestore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	list, err := store.ListForDate(context.Background(), "stu-1", tasks.Date(time.Now()))
	store.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) < generation.MinTasks || len(list) > generation.MaxTasks {
		t.Fatalf("expected 3-5 saved tasks, got %d", len(list))
	}
	for i, task := range list {
		if task.Order != i+1 {
			t.Errorf("task %d has order %d", i, task.Order)
		}
	}

	if err := run(t, "--config", configPath, "tasks", "status", list[0].ID, "in_progress"); err != nil {
		t.Fatalf("tasks status: %v", err)
	}
	if err := run(t, "--config", configPath, "tasks", "status", list[0].ID, "bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestGenerate_UnknownStudent(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	err := run(t, "--config", configPath, "generate", "--student", "ghost")
	if err == nil {
		t.Fatal("expected error for unknown student")
	}
}

func TestAsk_FallsBackWithoutBackend(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	if err := run(t, "--config", configPath, "ask", "what", "is", "recursion"); err != nil {
		t.Fatalf("ask: %v", err)
	}
}

func TestPreferencesFrom(t *testing.T) {
	got := preferencesFrom(configPreferences(9, 0, "high"))
	if got.TaskCount != generation.MaxTasks {
		t.Errorf("expected task count clamped to %d, got %d", generation.MaxTasks, got.TaskCount)
	}
	if got.MaxDuration != generation.DefaultMaxDuration {
		t.Errorf("expected default max duration, got %d", got.MaxDuration)
	}
	if len(got.Priorities) != 1 || got.Priorities[0] != goals.PriorityHigh {
		t.Errorf("unexpected priorities %v", got.Priorities)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogHandler(t *testing.T) {
	var out strings.Builder
	slog.New(newLogHandler(&out, "JSON", slog.LevelInfo)).Info("generated", "tasks", 5)
	if !strings.HasPrefix(out.String(), "{") || !strings.Contains(out.String(), `"tasks":5`) {
		t.Errorf("expected json line, got %q", out.String())
	}

	out.Reset()
	logger := slog.New(newLogHandler(&out, "", slog.LevelWarn))
	logger.Info("hidden")
	logger.Warn("shown", "tier", "primary")
	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "tier=primary") {
		t.Errorf("unexpected text output %q", out.String())
	}
}

func configPreferences(count, maxDuration int, priorities ...string) config.PreferencesConfig {
	return config.PreferencesConfig{TaskCount: count, MaxDuration: maxDuration, Priorities: priorities}
}

func TestSecretSet(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DAYPLAN_PATH", dir)

	if err := run(t, "secret", "set", "OPENAI_API_KEY", "sk-test"); err != nil {
		t.Fatalf("secret set: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "OPENAI_API_KEY=ENC[age:") {
		t.Errorf("expected encrypted entry, got %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, ".age-key")); err != nil {
		t.Errorf("expected key file: %v", err)
	}
}

func TestPrintStatus(t *testing.T) {
	last := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	now := time.Now()
	tests := []struct {
		name   string
		status heartbeat.Status
		hb     *heartbeat.Heartbeat
		want   []string
	}{
		{"dead", heartbeat.StatusDead, nil, []string{"NOT RUNNING"}},
		{
			"idle", heartbeat.StatusAlive,
			&heartbeat.Heartbeat{PID: 42, Addr: "127.0.0.1:18420", Primary: "webhook", Locale: "en", StartedAt: now.Add(-time.Minute), Timestamp: now},
			[]string{"ALIVE on 127.0.0.1:18420 (PID 42, uptime 1m0s)", "Primary tier: webhook (locale en)", "Generations: none yet"},
		},
		{
			"served", heartbeat.StatusStale,
			&heartbeat.Heartbeat{PID: 7, Timestamp: now, Served: map[string]int{"secondary": 1, "primary": 3}, Failed: 2, LastGeneration: &last},
			[]string{"STALE (PID 7", "Generations: primary=3 secondary=1, failed=2, last 2026-03-02T08:30:00Z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			printStatus(&out, tt.status, tt.hb)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output %q missing %q", out.String(), w)
				}
			}
		})
	}
}
