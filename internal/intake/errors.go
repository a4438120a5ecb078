// Package intake implements the two marketing-site flows: sending an ROI
// estimate by email, and registering a landing-page lead with the email
// provider.
//
// Both flows are stateless. Every call validates its payload, performs the
// required provider call(s), and then the optional follow-up call whose
// failure is logged and swallowed.
package intake

import (
	"errors"
)

// ErrNotConfigured is returned by every flow while the provider API key is
// missing.
var ErrNotConfigured = errors.New("intake: email service not configured")

// User-facing validation messages.
const (
	MsgEmailRequired     = "Email is required"
	MsgInvalidSubmission = "Invalid submission"
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgEmailsRequired    = "At least one email is required"
)

// ValidationError is a client input error. Message is safe to show to the
// caller.
type ValidationError struct {
	Message string
	// Spam is set when the submission was flagged by the honeypot or timing
	// check. It is never reported to the caller.
	Spam bool
}

func (e *ValidationError) Error() string {
	return "intake: " + e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func spam() error {
	return &ValidationError{Message: MsgInvalidSubmission, Spam: true}
}
