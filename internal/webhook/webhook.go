// Package webhook notifies a downstream application after a lead signs up.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// LeadPayload is the JSON body posted to the downstream URL.
type LeadPayload struct {
	Email string `json:"email"`
}

// Notifier delivers lead notifications. Tests inject a stub.
type Notifier interface {
	NotifyLead(ctx context.Context, leadID, email string) error
}

// Client POSTs lead notifications to a fixed URL.
type Client struct {
	url        string
	httpClient *http.Client
}

// New returns a Client for url. Returns nil when url is empty, which callers
// treat as "notifications disabled".
func New(url string, timeout time.Duration) *Client {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NotifyLead sends {"email": email}. leadID is forwarded as the
// Idempotency-Key header so the receiver can drop duplicates.
func (c *Client) NotifyLead(ctx context.Context, leadID, email string) error {
	body, err := json.Marshal(LeadPayload{Email: email})
	if err != nil {
		return errors.Wrap(err, "webhook: marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "webhook: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if leadID != "" {
		req.Header.Set("Idempotency-Key", leadID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook: http request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
