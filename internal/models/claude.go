package models

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/dayplan/internal/config"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 2048
)

// NewClaude creates an Anthropic ChatModel. Call deadlines come from the
// caller's context.
func NewClaude(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.ToolCallingChatModel, error) {
	modelConfig := &claude.Config{
		APIKey:    apiKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	if modelConfig.Model == "" {
		modelConfig.Model = defaultClaudeModel
	}
	if modelConfig.MaxTokens == 0 {
		modelConfig.MaxTokens = defaultClaudeMaxTokens
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		modelConfig.BaseURL = &baseURL
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}

	return claude.NewChatModel(ctx, modelConfig)
}
