// Package callbacks traces chat model calls on the event bus through eino
// callback handlers.
package callbacks

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"

	"github.com/dohr-michael/dayplan/internal/events"
)

const maxErrorLen = 500

// NewModelCallHandler creates a handler publishing a model.call event for
// each request, response and error. The student is taken from the context.
func NewModelCallHandler(bus *events.Bus) callbacks.Handler {
	publish := func(ctx context.Context, payload events.ModelCallPayload) {
		bus.Publish(events.NewTypedStudentEvent(events.SourceModel, payload, events.StudentIDFromContext(ctx)))
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
			payload := events.ModelCallPayload{Phase: "request", Model: info.Name}
			if input != nil {
				payload.MessageCount = len(input.Messages)
			}
			publish(ctx, payload)
			return ctx
		},
		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			payload := events.ModelCallPayload{Phase: "response", Model: info.Name}
			if output != nil && output.TokenUsage != nil {
				payload.TokensInput = output.TokenUsage.PromptTokens
				payload.TokensOutput = output.TokenUsage.CompletionTokens
			} else if output != nil && output.Message != nil && output.Message.ResponseMeta != nil && output.Message.ResponseMeta.Usage != nil {
				payload.TokensInput = output.Message.ResponseMeta.Usage.PromptTokens
				payload.TokensOutput = output.Message.ResponseMeta.Usage.CompletionTokens
			}
			publish(ctx, payload)
			return ctx
		},
		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			publish(ctx, events.ModelCallPayload{
				Phase: "error",
				Model: info.Name,
				Error: truncate(err.Error(), maxErrorLen),
			})
			return ctx
		},
	}

	return ub.NewHandlerHelper().ChatModel(modelHandler).Handler()
}

// Traced wraps a chat model so every call runs with handler attached under
// name. Models that report callbacks themselves trigger it.
func Traced(inner model.BaseChatModel, name string, handler callbacks.Handler) model.BaseChatModel {
	return &tracedModel{inner: inner, name: name, handler: handler}
}

type tracedModel struct {
	inner   model.BaseChatModel
	name    string
	handler callbacks.Handler
}

func (m *tracedModel) init(ctx context.Context) context.Context {
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      m.name,
		Type:      "ChatModel",
		Component: components.ComponentOfChatModel,
	}, m.handler)
}

func (m *tracedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.inner.Generate(m.init(ctx), input, opts...)
}

func (m *tracedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(m.init(ctx), input, opts...)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
