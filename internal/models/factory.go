package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/dayplan/internal/config"
)

type driver struct {
	needsKey bool
	build    func(ctx context.Context, cfg config.ProviderConfig, key string) (model.ToolCallingChatModel, error)
}

// drivers maps a config driver name, lowercased, to its constructor. mistral
// speaks the openai wire format.
var drivers = map[string]driver{
	"anthropic": {needsKey: true, build: NewClaude},
	"claude":    {needsKey: true, build: NewClaude},
	"openai":    {needsKey: true, build: NewOpenAI},
	"mistral":   {needsKey: true, build: NewOpenAI},
	"ollama": {build: func(ctx context.Context, cfg config.ProviderConfig, _ string) (model.ToolCallingChatModel, error) {
		return NewOllama(ctx, cfg)
	}},
}

// CreateModel builds the chat model a provider config describes.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	d, ok := drivers[strings.ToLower(cfg.Driver)]
	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}
	var key string
	if d.needsKey {
		var err error
		if key, err = ResolveAuth(cfg); err != nil {
			return nil, fmt.Errorf("resolve auth: %w", err)
		}
	}
	return d.build(ctx, cfg, key)
}
