// Package assistant answers free-form learner questions through a remote
// backend, falling back to templated replies when it is unavailable.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/events"
	"github.com/dohr-michael/dayplan/internal/generation"
)

var ErrMissingFields = errors.New("message and user id are required")

// MessageType tags the origin of a reply.
type MessageType string

const (
	MessageAnswer   MessageType = "answer"
	MessageFallback MessageType = "fallback"
	MessageError    MessageType = "error"
)

// Request is one learner message.
type Request struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Reply is the assistant's answer.
type Reply struct {
	Response       string      `json:"response"`
	MessageType    MessageType `json:"messageType"`
	ConversationID string      `json:"conversationId"`
	TokensUsed     int         `json:"tokensUsed,omitempty"`
}

// Backend produces replies remotely.
type Backend interface {
	Reply(ctx context.Context, req Request) (*Reply, error)
}

// Assistant wraps a backend with a call policy and a fallback strategy.
type Assistant struct {
	backend  Backend
	policy   generation.Policy
	strategy ResponseStrategy
	locale   duration.Locale
	bus      *events.Bus
	now      func() time.Time
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithBackend sets the remote backend. Without one every reply is a fallback.
func WithBackend(b Backend) Option {
	return func(a *Assistant) { a.backend = b }
}

// WithPolicy overrides the backend call policy.
func WithPolicy(p generation.Policy) Option {
	return func(a *Assistant) { a.policy = p }
}

// WithStrategy overrides the fallback strategy.
func WithStrategy(s ResponseStrategy) Option {
	return func(a *Assistant) { a.strategy = s }
}

// WithLocale sets the fallback reply language.
func WithLocale(l duration.Locale) Option {
	return func(a *Assistant) { a.locale = l }
}

// WithBus publishes reply outcomes on bus.
func WithBus(bus *events.Bus) Option {
	return func(a *Assistant) { a.bus = bus }
}

// WithClock overrides the time source used for conversation ids.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// New creates an Assistant.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		policy:   generation.AssistantPolicy,
		strategy: KeywordStrategy{},
		locale:   duration.LocaleEN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ConversationID derives a conversation id for a user.
func ConversationID(now time.Time, userID string) string {
	return fmt.Sprintf("conv-%d-%s", now.UnixMilli(), userID)
}

// Reply answers a message. Backend failures never surface: the reply is
// then produced by the fallback strategy.
func (a *Assistant) Reply(ctx context.Context, req Request) (*Reply, error) {
	req.Message = strings.TrimSpace(req.Message)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.Message == "" || req.UserID == "" {
		return nil, ErrMissingFields
	}
	if req.ConversationID == "" {
		req.ConversationID = ConversationID(a.now(), req.UserID)
	}
	ctx = events.ContextWithStudentID(ctx, req.UserID)

	attempts := 0
	var backendErr error
	if a.backend != nil {
		var reply *Reply
		reply, attempts, backendErr = generation.Run(ctx, a.policy, func(actx context.Context) (*Reply, error) {
			r, err := a.backend.Reply(actx, req)
			if err != nil {
				return nil, err
			}
			if r == nil || strings.TrimSpace(r.Response) == "" {
				return nil, errors.New("backend returned an empty reply")
			}
			return r, nil
		})
		if backendErr == nil {
			if reply.ConversationID == "" {
				reply.ConversationID = req.ConversationID
			}
			if reply.MessageType == "" {
				reply.MessageType = MessageAnswer
			}
			a.publish(req, reply, attempts, nil)
			return reply, nil
		}
		slog.Warn("assistant backend failed, using fallback", "user_id", req.UserID, "attempts", attempts, "error", backendErr)
	}

	reply := &Reply{ConversationID: req.ConversationID}
	if ctx.Err() != nil {
		reply.Response = apology(a.locale)
		reply.MessageType = MessageError
	} else {
		reply.Response = a.strategy.Respond(req.Message, a.locale)
		reply.MessageType = MessageFallback
	}
	a.publish(req, reply, attempts, backendErr)
	return reply, nil
}

func (a *Assistant) publish(req Request, reply *Reply, attempts int, err error) {
	payload := events.AssistantReplyPayload{
		ConversationID: reply.ConversationID,
		MessageType:    string(reply.MessageType),
		Attempts:       attempts,
	}
	if err != nil {
		payload.Error = err.Error()
	}
	a.bus.Publish(events.NewTypedStudentEvent(events.SourceAssistant, payload, req.UserID))
}

func apology(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "抱歉，我暂时无法处理您的问题。请稍后再试。"
	}
	return "Sorry, I can't handle your question right now. Please try again later."
}
