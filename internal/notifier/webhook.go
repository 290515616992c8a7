package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aatumaykin/taskmill/internal/redact"
	"github.com/aatumaykin/taskmill/internal/runlog"
)

// Webhook posts run summaries as JSON to a chat webhook URL.
type Webhook struct {
	url      string
	redactor *redact.Redactor
	client   *http.Client
}

// NewWebhook validates the URL and builds a webhook sink.
func NewWebhook(rawURL string, redactor *redact.Redactor) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid webhook url %q", rawURL)
	}
	return &Webhook{
		url:      rawURL,
		redactor: redactor,
		client:   http.DefaultClient,
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(ctx context.Context, rec runlog.Record) error {
	payload := NewPayload(rec, w.redactor)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
