package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/models"
)

// WebhookBackend forwards messages to a chat workflow webhook.
type WebhookBackend struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhookBackend creates a backend posting to url.
func NewWebhookBackend(url string, client *http.Client) *WebhookBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &WebhookBackend{url: url, client: client, now: time.Now}
}

type webhookRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	Timestamp      string `json:"timestamp"`
}

type webhookResponse struct {
	Success        *bool  `json:"success"`
	Response       string `json:"response"`
	MessageType    string `json:"messageType"`
	ConversationID string `json:"conversationId"`
	TokensUsed     int    `json:"tokensUsed"`
	Error          string `json:"error"`
}

// Reply implements Backend.
func (w *WebhookBackend) Reply(ctx context.Context, req Request) (*Reply, error) {
	data, err := json.Marshal(webhookRequest{
		Message:        req.Message,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Timestamp:      w.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("assistant webhook: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("assistant webhook: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("assistant webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("assistant webhook: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("assistant webhook: status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("assistant webhook: empty response body")
	}

	var wr webhookResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return nil, fmt.Errorf("assistant webhook: decode response: %w", err)
	}
	if wr.Success != nil && !*wr.Success {
		msg := wr.Error
		if msg == "" {
			msg = "workflow reported failure"
		}
		return nil, fmt.Errorf("assistant webhook: %s", msg)
	}

	return &Reply{
		Response:       wr.Response,
		MessageType:    MessageType(wr.MessageType),
		ConversationID: wr.ConversationID,
		TokensUsed:     wr.TokensUsed,
	}, nil
}

// ModelBackend answers with a chat model.
type ModelBackend struct {
	chat   model.BaseChatModel
	locale duration.Locale
}

// NewModelBackend creates a backend backed by chat.
func NewModelBackend(chat model.BaseChatModel, locale duration.Locale) *ModelBackend {
	return &ModelBackend{chat: chat, locale: locale}
}

// Reply implements Backend.
func (m *ModelBackend) Reply(ctx context.Context, req Request) (*Reply, error) {
	msgs := []*schema.Message{
		{Role: schema.System, Content: tutorPrompt(m.locale)},
		{Role: schema.User, Content: req.Message},
	}
	out, err := m.chat.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("assistant model: %w", models.HandleError(err))
	}
	if out == nil {
		return nil, errors.New("assistant model: empty reply")
	}

	reply := &Reply{
		Response:       strings.TrimSpace(out.Content),
		MessageType:    MessageAnswer,
		ConversationID: req.ConversationID,
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		reply.TokensUsed = out.ResponseMeta.Usage.TotalTokens
	}
	return reply, nil
}

func tutorPrompt(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "你是一名耐心的编程学习助手。用简洁的中文回答学生的问题，必要时给出小例子和下一步练习建议。"
	}
	return "You are a patient programming study assistant. Answer the learner concisely, with a small example and a next practice step when useful."
}
