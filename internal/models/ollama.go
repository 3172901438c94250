package models

import (
	"context"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/dayplan/internal/config"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaTimeout = 120 * time.Second
)

// NewOllama creates a ChatModel served by a local or proxied Ollama.
// Recognized options: temperature, top_p, num_ctx.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	return einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
		BaseURL:    baseURL,
		Model:      cfg.Model,
		Timeout:    timeout,
		HTTPClient: guardedClient("ollama", timeout),
		Options:    ollamaOptions(cfg),
	})
}

func ollamaOptions(cfg config.ProviderConfig) *einoollama.Options {
	opts := &einoollama.Options{NumPredict: cfg.MaxTokens}
	if v, ok := floatOption(cfg, "temperature"); ok {
		opts.Temperature = float32(v)
	}
	if v, ok := floatOption(cfg, "top_p"); ok {
		opts.TopP = float32(v)
	}
	if v, ok := floatOption(cfg, "num_ctx"); ok {
		opts.NumCtx = int(v)
	}
	return opts
}
