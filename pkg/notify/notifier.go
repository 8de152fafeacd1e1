// Package notify delivers best-effort moderation notifications. Callers
// always swallow and log failures; delivery is never a precondition for
// anything.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 5 * time.Second

// Notifier sends a human-readable message to a review channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// WebhookNotifier POSTs the raw message body to a configured webhook URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NopNotifier is used when no webhook URL is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}
