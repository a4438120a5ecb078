package intake_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/airshopworks/landing-backend/internal/email"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubProvider records every call in order and returns canned errors.
type stubProvider struct {
	mu    sync.Mutex
	calls []string

	sent      []email.Message
	audiences []email.AudienceContact
	contacts  []email.Contact
	segments  []string // "email|segment"

	sendID      string
	sendErr     error
	audienceErr error
	createErr   error
	segmentErr  error
}

func (p *stubProvider) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *stubProvider) SendEmail(_ context.Context, m email.Message) (string, error) {
	p.record("send")
	p.sent = append(p.sent, m)
	if p.sendErr != nil {
		return "", p.sendErr
	}
	return p.sendID, nil
}

func (p *stubProvider) AddToAudience(_ context.Context, c email.AudienceContact) error {
	p.record("audience")
	p.audiences = append(p.audiences, c)
	return p.audienceErr
}

func (p *stubProvider) CreateContact(_ context.Context, c email.Contact) error {
	p.record("create")
	p.contacts = append(p.contacts, c)
	return p.createErr
}

func (p *stubProvider) AddToSegment(_ context.Context, address, segmentID string) error {
	p.record("segment")
	p.segments = append(p.segments, address+"|"+segmentID)
	return p.segmentErr
}

// stubNotifier records webhook notifications.
type stubNotifier struct {
	emails  []string
	leadIDs []string
	err     error
}

func (n *stubNotifier) NotifyLead(_ context.Context, leadID, address string) error {
	n.leadIDs = append(n.leadIDs, leadID)
	n.emails = append(n.emails, address)
	return n.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
