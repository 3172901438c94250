package models

import (
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 512

// guardedClient returns an HTTP client whose transport turns anything that
// is not a JSON model response into an ErrModelUnavailable. Self-hosted
// backends often sit behind proxies answering plain text on failure.
func guardedClient(provider string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &guardTransport{next: http.DefaultTransport, provider: provider},
	}
}

type guardTransport struct {
	next     http.RoundTripper
	provider string
}

func (t *guardTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}
	if resp.StatusCode >= http.StatusBadRequest || !isJSON(resp.Header.Get("Content-Type")) {
		return nil, &ErrModelUnavailable{Provider: t.provider, Body: drain(resp)}
	}
	return resp, nil
}

// isJSON accepts application/json and application/x-ndjson. A missing
// content type is let through.
func isJSON(contentType string) bool {
	return contentType == "" || strings.Contains(contentType, "json")
}

func drain(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(body))
}
