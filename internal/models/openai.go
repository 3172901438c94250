package models

import (
	"context"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/dayplan/internal/config"
)

// openAICompatible holds defaults for drivers speaking the OpenAI chat API.
var openAICompatible = map[string]struct {
	baseURL string
	model   string
}{
	"openai":  {model: "gpt-4o-mini"},
	"mistral": {baseURL: "https://api.mistral.ai/v1", model: "mistral-small-latest"},
}

// NewOpenAI creates a ChatModel for OpenAI or an OpenAI-compatible API.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.ToolCallingChatModel, error) {
	defaults := openAICompatible[strings.ToLower(cfg.Driver)]

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   cfg.Model,
		BaseURL: defaults.baseURL,
	}
	if modelConfig.Model == "" {
		modelConfig.Model = defaults.model
	}
	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}

	if cfg.Timeout.Duration() > 0 {
		modelConfig.Timeout = cfg.Timeout.Duration()
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}
	if topP, ok := floatOption(cfg, "top_p"); ok {
		p := float32(topP)
		modelConfig.TopP = &p
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

// floatOption reads a numeric driver option decoded from JSON.
func floatOption(cfg config.ProviderConfig, key string) (float64, bool) {
	if cfg.Options == nil {
		return 0, false
	}
	v, ok := cfg.Options[key].(float64)
	return v, ok
}
