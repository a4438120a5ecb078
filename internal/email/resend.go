package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/resend/resend-go/v2"
)

// DefaultBaseURL is the public Resend API root.
const DefaultBaseURL = "https://api.resend.com"

// Observer receives the latency of every provider call. May be nil.
type Observer interface {
	ObserveProvider(op string, d time.Duration)
}

// ResendOptions configures NewResendClient.
type ResendOptions struct {
	APIKey     string
	BaseURL    string        // default DefaultBaseURL
	Timeout    time.Duration // default 10s
	HTTPClient *http.Client  // overrides Timeout when set
	Observer   Observer
}

// resendClient is the concrete Provider backed by the Resend API.
//
// Transactional sends and audience contacts go through the resend-go SDK.
// Contact creation with custom properties and segment membership is not
// covered by the SDK, so those calls are made directly.
type resendClient struct {
	sdk        *resend.Client
	apiKey     string
	baseURL    *url.URL
	httpClient *http.Client
	observer   Observer
}

// NewResendClient returns a Provider that talks to Resend.
func NewResendClient(opts ResendOptions) (Provider, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "email: parse base url")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	sdk := resend.NewCustomClient(httpClient, opts.APIKey)
	sdk.BaseURL = base

	return &resendClient{
		sdk:        sdk,
		apiKey:     opts.APIKey,
		baseURL:    base,
		httpClient: httpClient,
		observer:   opts.Observer,
	}, nil
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type createContactRequest struct {
	Email        string            `json:"email"`
	Unsubscribed bool              `json:"unsubscribed"`
	Properties   map[string]string `json:"properties,omitempty"`
	SegmentIDs   []string          `json:"segment_ids,omitempty"`
}

type errorResponse struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ─── PROVIDER IMPLEMENTATION ──────────────────────────────────────────────────

func (c *resendClient) SendEmail(ctx context.Context, m Message) (string, error) {
	defer c.observe("send_email", time.Now())

	resp, err := c.sdk.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.From,
		To:      m.To,
		Bcc:     m.Bcc,
		Subject: m.Subject,
		Html:    m.HTML,
	})
	if err != nil {
		return "", errors.Wrap(err, "email: send")
	}
	return resp.Id, nil
}

func (c *resendClient) AddToAudience(ctx context.Context, ac AudienceContact) error {
	defer c.observe("add_to_audience", time.Now())

	_, err := c.sdk.Contacts.CreateWithContext(ctx, &resend.CreateContactRequest{
		Email:        ac.Email,
		AudienceId:   ac.AudienceID,
		FirstName:    ac.FirstName,
		Unsubscribed: false,
	})
	if err != nil {
		return errors.Wrap(err, "email: add to audience")
	}
	return nil
}

func (c *resendClient) CreateContact(ctx context.Context, ct Contact) error {
	defer c.observe("create_contact", time.Now())

	body := createContactRequest{
		Email:        ct.Email,
		Unsubscribed: ct.Unsubscribed,
		Properties:   ct.Properties,
		SegmentIDs:   ct.SegmentIDs,
	}
	if err := c.do(ctx, "contacts", body); err != nil {
		return errors.Wrap(err, "email: create contact")
	}
	return nil
}

func (c *resendClient) AddToSegment(ctx context.Context, address, segmentID string) error {
	defer c.observe("add_to_segment", time.Now())

	path := "contacts/" + url.PathEscape(address) + "/segments/" + url.PathEscape(segmentID)
	if err := c.do(ctx, path, nil); err != nil {
		return errors.Wrap(err, "email: add to segment")
	}
	return nil
}

// ─── HTTP ─────────────────────────────────────────────────────────────────────

// do POSTs body (may be nil) to path relative to the base URL and converts a
// non-2xx response into *APIError.
func (c *resendClient) do(ctx context.Context, path string, body any) error {
	reader := io.Reader(http.NoBody)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(b)
	}

	// path is already escaped; concatenation keeps it byte-for-byte.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var parsed errorResponse
	if json.Unmarshal(respBytes, &parsed) == nil && parsed.Message != "" {
		apiErr.Name = parsed.Name
		apiErr.Message = parsed.Message
	} else {
		apiErr.Message = truncate(string(respBytes), 200)
	}
	return apiErr
}

func (c *resendClient) observe(op string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveProvider(op, time.Since(start))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
