package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dohr-michael/dayplan/internal/tasks"
)

const webhookUserAgent = "dayplan/1.0"

// WebhookGenerator delegates generation to a workflow webhook.
type WebhookGenerator struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookGenerator creates a generator posting to url. Deadlines come from
// the caller's context, so the client carries no timeout of its own.
func NewWebhookGenerator(url string, headers map[string]string, client *http.Client) *WebhookGenerator {
	if client == nil {
		client = &http.Client{}
	}
	return &WebhookGenerator{url: url, headers: headers, client: client}
}

type webhookPreferences struct {
	TaskCount   int      `json:"taskCount"`
	MaxDuration int      `json:"maxDuration"`
	Priorities  []string `json:"priorities"`
}

type webhookRequest struct {
	StudentID   string             `json:"student_id"`
	Date        string             `json:"date"`
	Preferences webhookPreferences `json:"preferences"`
	Goals       []string           `json:"goals"`
	Context     string             `json:"context"`
}

type webhookTask struct {
	Content          string `json:"task_content"`
	Category         string `json:"task_category"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Order            int    `json:"task_order"`
	Status           string `json:"status"`
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Tasks              []webhookTask `json:"tasks"`
		BasedOnGoals       []string      `json:"basedOnGoals"`
		GeneratedAt        string        `json:"generatedAt"`
		TotalEstimatedTime string        `json:"totalEstimatedTime"`
	} `json:"data"`
}

// Generate implements Generator.
func (w *WebhookGenerator) Generate(ctx context.Context, req Request) (*Output, error) {
	body := webhookRequest{
		StudentID: req.StudentID,
		Date:      tasks.Date(req.Date),
		Preferences: webhookPreferences{
			TaskCount:   req.Preferences.TaskCount,
			MaxDuration: req.Preferences.MaxDuration,
			Priorities:  make([]string, len(req.Preferences.Priorities)),
		},
	}
	for i, p := range req.Preferences.Priorities {
		body.Preferences.Priorities[i] = string(p)
	}
	if req.Context != nil {
		body.Goals = req.Context.Titles()
		body.Context = req.Context.Text()
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("webhook: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", webhookUserAgent)
	for k, v := range w.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("webhook: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook: status %d: %s", resp.StatusCode, snippet(raw))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("webhook: empty response body")
	}

	var wr webhookResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return nil, fmt.Errorf("webhook: decode response: %w", err)
	}
	if !wr.Success {
		msg := wr.Error
		if msg == "" {
			msg = "workflow reported failure"
		}
		return nil, fmt.Errorf("webhook: %s", msg)
	}
	if wr.Data == nil || len(wr.Data.Tasks) == 0 {
		return nil, errors.New("webhook: no tasks in response")
	}

	out := &Output{BasedOnGoals: wr.Data.BasedOnGoals}
	for _, t := range wr.Data.Tasks {
		out.Tasks = append(out.Tasks, t.Content)
	}
	return out, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
