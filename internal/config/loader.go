package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before stripping, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18420
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(DayplanPath(), "dayplan.db")
	}
	if cfg.Storage.EventLogDir == "" {
		cfg.Storage.EventLogDir = filepath.Join(DayplanPath(), "logs")
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Events.LogLevel == "" {
		cfg.Events.LogLevel = "info"
	}

	gen := &cfg.Generation
	if gen.Locale == "" {
		gen.Locale = "en"
	}
	if gen.Primary.Driver == "" {
		gen.Primary.Driver = inferDriver(gen.Primary.URL, gen.Primary.Model, cfg.Models.Default)
	}
	applyPolicyDefaults(&gen.Primary.Policy, 30*time.Second, 1, 0)
	if gen.Preferences.TaskCount == 0 {
		gen.Preferences.TaskCount = 5
	}
	if gen.Preferences.MaxDuration == 0 {
		gen.Preferences.MaxDuration = 480
	}
	if len(gen.Preferences.Priorities) == 0 {
		gen.Preferences.Priorities = []string{"high", "medium"}
	}

	as := &cfg.Assistant
	if as.Driver == "" {
		as.Driver = inferDriver(as.URL, as.Model, cfg.Models.Default)
	}
	applyPolicyDefaults(&as.Policy, 15*time.Second, 2, time.Second)
	if as.Strategy == "" {
		as.Strategy = "keyword"
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}

// inferDriver picks webhook when a URL is configured, then a model when one
// is named, otherwise disables the remote tier.
func inferDriver(url, model, defaultModel string) string {
	switch {
	case url != "":
		return DriverWebhook
	case model != "" || defaultModel != "":
		return DriverModel
	default:
		return DriverNone
	}
}

func applyPolicyDefaults(p *PolicyConfig, timeout time.Duration, attempts int, backoff time.Duration) {
	if p.Timeout == 0 {
		p.Timeout = Duration(timeout)
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = attempts
	}
	if p.Backoff == 0 {
		p.Backoff = Duration(backoff)
	}
}
