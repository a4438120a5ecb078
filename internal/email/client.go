// Package email defines the interface for the transactional email and contact
// provider and provides a Resend-backed implementation.
package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
)

// Message is a single transactional send.
type Message struct {
	From    string   // e.g. "AirShop <hello@airshop.works>"
	To      []string // at least one recipient
	Bcc     []string
	Subject string
	HTML    string
}

// AudienceContact registers an address into a marketing audience.
type AudienceContact struct {
	AudienceID string
	Email      string
	FirstName  string // may be empty
}

// Contact is created on the provider with optional custom properties and
// segment memberships.
type Contact struct {
	Email        string
	Unsubscribed bool
	Properties   map[string]string
	SegmentIDs   []string
}

// Provider is the interface the intake flows use for every outbound provider
// call. Tests inject a stub that records calls without hitting the network.
type Provider interface {
	// SendEmail submits one transactional email and returns the provider's
	// message id.
	SendEmail(ctx context.Context, m Message) (string, error)

	// AddToAudience creates a contact inside a marketing audience.
	AddToAudience(ctx context.Context, c AudienceContact) error

	// CreateContact creates a contact. When the address already exists the
	// returned error satisfies IsAlreadyExists.
	CreateContact(ctx context.Context, c Contact) error

	// AddToSegment attaches an existing contact, addressed by email, to a
	// segment.
	AddToSegment(ctx context.Context, email, segmentID string) error
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("email: provider status %d: %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("email: provider status %d: %s", e.StatusCode, e.Message)
}

// IsAlreadyExists reports whether err is a provider response saying the
// contact already exists: a 409, or any error whose message mentions
// "already".
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusConflict || strings.Contains(apiErr.Message, "already")
}
