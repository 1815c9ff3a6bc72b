package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clawearning/backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// Notifier delivers a notification to the transport collaborator
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. Used when no webhook is configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs n
func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"kind":            n.Kind,
		"account_id":      n.AccountID,
	}).Info(n.Message)
	return nil
}

// WebhookNotifier POSTs signed notifications to the transport collaborator
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to url
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

// Notify sends n and treats any non-2xx response as a failure
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("error marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Kind", string(n.Kind))
	if w.secret != "" {
		req.Header.Set(utils.SignatureHeader, utils.SignHMAC(body, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
