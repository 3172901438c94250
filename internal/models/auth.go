package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/dohr-michael/dayplan/internal/config"
)

// driverKeyEnv names the environment variable consulted when a provider has
// no explicit key.
var driverKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
}

// ResolveAuth resolves the API key for a provider.
// Resolution order: api_key (literal or ${VAR}) → driver default env.
func ResolveAuth(cfg config.ProviderConfig) (string, error) {
	if key := resolveValue(cfg.Auth.APIKey); key != "" {
		return key, nil
	}

	env, ok := driverKeyEnv[strings.ToLower(cfg.Driver)]
	if !ok {
		return "", fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s not set", env)
}

func resolveValue(v string) string {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		return os.Getenv(trimmed[2 : len(trimmed)-1])
	}
	return trimmed
}
