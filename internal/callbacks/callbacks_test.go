package callbacks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/dayplan/internal/events"
)

// reportingModel mimics a provider that reports its calls to callbacks.
type reportingModel struct {
	err error
}

func (m *reportingModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: input})
	if m.err != nil {
		callbacks.OnError(ctx, m.err)
		return nil, m.err
	}
	out := schema.AssistantMessage("ok", nil)
	callbacks.OnEnd(ctx, &model.CallbackOutput{
		Message:    out,
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	})
	return out, nil
}

func (m *reportingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func waitForEvents(t *testing.T, bus *events.Bus, n int) []events.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hist := bus.History(n); len(hist) == n {
			return hist
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", n)
	return nil
}

func TestTraced_PublishesRequestAndResponse(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	m := Traced(&reportingModel{}, "claude", NewModelCallHandler(bus))
	ctx := events.ContextWithStudentID(context.Background(), "stu-1")
	msgs := []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("hi")}
	if _, err := m.Generate(ctx, msgs); err != nil {
		t.Fatal(err)
	}

	hist := waitForEvents(t, bus, 2)
	req, _ := events.ExtractPayload[events.ModelCallPayload](hist[0])
	if req.Phase != "request" || req.Model != "claude" || req.MessageCount != 2 {
		t.Errorf("unexpected request payload %+v", req)
	}
	resp, _ := events.ExtractPayload[events.ModelCallPayload](hist[1])
	if resp.Phase != "response" || resp.TokensInput != 12 || resp.TokensOutput != 3 {
		t.Errorf("unexpected response payload %+v", resp)
	}
	for _, ev := range hist {
		if ev.Type != events.EventModelCall || ev.StudentID != "stu-1" || ev.Source != events.SourceModel {
			t.Errorf("unexpected event %+v", ev)
		}
	}
}

func TestTraced_PublishesError(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	m := Traced(&reportingModel{err: errors.New(strings.Repeat("x", 600))}, "local", NewModelCallHandler(bus))
	if _, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}); err == nil {
		t.Fatal("expected error")
	}

	hist := waitForEvents(t, bus, 2)
	p, _ := events.ExtractPayload[events.ModelCallPayload](hist[1])
	if p.Phase != "error" || p.Model != "local" {
		t.Errorf("unexpected payload %+v", p)
	}
	if len(p.Error) != maxErrorLen+len("... (truncated)") {
		t.Errorf("expected truncated error, got len %d", len(p.Error))
	}
	if hist[1].StudentID != "" {
		t.Errorf("expected no student, got %q", hist[1].StudentID)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 100, "hello"},
		{"exact", strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{"long", strings.Repeat("x", 200), 100, strings.Repeat("x", 100) + "... (truncated)"},
		{"zero max", "hello world", 0, "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}
