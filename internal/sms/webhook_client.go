package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/request"
	"github.com/oggyb/sms-framework/internal/response"
)

// WebhookPlugin sends messages to a webhook-style HTTP endpoint, one
// request per recipient.
type WebhookPlugin struct {
	endpoint   string
	authKey    string
	httpClient *http.Client
}

// NewWebhookClient creates a new WebhookPlugin with the given endpoint and auth key.
func NewWebhookClient(endpoint, authKey string) *WebhookPlugin {
	return &WebhookPlugin{
		endpoint: endpoint,
		authKey:  authKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // upper bound; requests are also ctx-bound
		},
	}
}

// NewWebhookPlugin is the gateway factory; it requires the "url" setting
// and accepts an optional "key".
func NewWebhookPlugin(settings map[string]string) (gateway.Plugin, error) {
	if settings["url"] == "" {
		return nil, fmt.Errorf("webhook plugin: url setting is required")
	}
	return NewWebhookClient(settings["url"], settings["key"]), nil
}

// withTimeout wraps the context with a timeout if it doesn't already have one.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		// Already has a deadline; no need to wrap again.
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Capabilities implements gateway.Plugin.
func (c *WebhookPlugin) Capabilities() gateway.Capabilities {
	return gateway.Capabilities{
		SupportsIncoming:      true,
		SupportsReportsPush:   true,
		MaxOutgoingRecipients: 1,
	}
}

// Send implements gateway.Plugin. Any failed request fails the call.
func (c *WebhookPlugin) Send(ctx context.Context, m *message.Message) (*message.Result, error) {
	res := &message.Result{}
	for _, rcpt := range m.Recipients {
		externalID, _, err := c.sendOne(ctx, rcpt, m.Body)
		if err != nil {
			return nil, err
		}
		res.Reports = append(res.Reports, &message.DeliveryReport{
			MessageID:  externalID,
			Recipient:  rcpt,
			Status:     message.StatusQueued,
			StatusTime: time.Now().UTC(),
		})
	}
	return res, nil
}

// sendOne posts a JSON payload for a single recipient and returns the
// provider message id and raw response.
func (c *WebhookPlugin) sendOne(ctx context.Context, to, content string) (string, string, error) {
	// Keep individual requests bounded in time.
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	payload := request.WebhookRequest{
		To:      to,
		Content: content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authKey != "" {
		req.Header.Set("x-ins-auth-key", c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", "", fmt.Errorf("webhook request timeout or canceled: %w", err)
		}
		return "", "", fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	rawBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read webhook response: %w", err)
	}
	raw := string(rawBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", raw, fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}

	var parsed response.WebhookResponse
	if err := json.Unmarshal(rawBytes, &parsed); err != nil {
		return "", raw, fmt.Errorf("failed to parse webhook response: %w", err)
	}

	if parsed.MessageID == "" {
		return "", raw, fmt.Errorf("webhook response missing messageId")
	}

	return parsed.MessageID, raw, nil
}

// ParseDeliveryReports implements gateway.ReportParser.
func (c *WebhookPlugin) ParseDeliveryReports(r *http.Request) ([]*message.DeliveryReport, error) {
	if err := c.authorize(r); err != nil {
		return nil, err
	}
	return decodeDeliveryReports(r)
}

// ParseIncoming implements gateway.IncomingParser.
func (c *WebhookPlugin) ParseIncoming(r *http.Request) ([]*message.Message, error) {
	if err := c.authorize(r); err != nil {
		return nil, err
	}
	return decodeIncoming(r)
}

// authorize checks the shared key on pushed requests when one is configured.
func (c *WebhookPlugin) authorize(r *http.Request) error {
	if c.authKey != "" && r.Header.Get("x-ins-auth-key") != c.authKey {
		return fmt.Errorf("webhook push: invalid auth key")
	}
	return nil
}

// Health does a simple GET request to the webhook endpoint. It backs the
// gateway check of the /health endpoint.
func (c *WebhookPlugin) Health(ctx context.Context) error {
	// Lightweight ping with a short timeout.
	ctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("health: failed to create request: %w", err)
	}

	if c.authKey != "" {
		req.Header.Set("x-ins-auth-key", c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("health: request timeout or canceled: %w", err)
		}
		return fmt.Errorf("health: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health: non-2xx status: %d", resp.StatusCode)
	}

	return nil
}

// compile-time checks
var (
	_ gateway.Plugin         = (*WebhookPlugin)(nil)
	_ gateway.ReportParser   = (*WebhookPlugin)(nil)
	_ gateway.IncomingParser = (*WebhookPlugin)(nil)
	_ gateway.HealthChecker  = (*WebhookPlugin)(nil)
)
