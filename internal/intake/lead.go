package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/airshopworks/landing-backend/internal/email"
	"github.com/airshopworks/landing-backend/internal/metrics"
	"github.com/airshopworks/landing-backend/internal/webhook"
)

// MinFormFillTime is the shortest plausible time between the form loading and
// a human submitting it.
const MinFormFillTime = 3000 * time.Millisecond

// LeadTypeLandingPage is stored on the provider contact as its origin.
const LeadTypeLandingPage = "landing_page_signup"

// LeadSubmission is the signup form as posted by the browser. Fields keep the
// loose JSON types the form may send: email must be a string, website is any
// value, form_load_time is a millisecond timestamp as a number or numeric
// string.
type LeadSubmission struct {
	Email        any `json:"email"`
	Website      any `json:"website"`
	FormLoadTime any `json:"form_load_time"`
}

// UnmarshalJSON reads the form fields by their exact key.
func (s *LeadSubmission) UnmarshalJSON(b []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*s = LeadSubmission{
		Email:        fields["email"],
		Website:      fields["website"],
		FormLoadTime: fields["form_load_time"],
	}
	return nil
}

// normalizedLead is validated after trimming and lower-casing.
type normalizedLead struct {
	Email string `validate:"required,leademail"`
}

// LeadResult describes a successful registration.
type LeadResult struct {
	LeadID   string
	Email    string
	Existing bool // the contact already existed and was attached to the segment
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(s string) string {
	return strings.ToLower(trimFormSpace(s))
}

// ValidateLead runs the spam and format checks in order and returns the
// normalized address. The first failing check wins.
func ValidateLead(sub LeadSubmission, now time.Time) (string, error) {
	raw, ok := sub.Email.(string)
	if !ok || raw == "" {
		return "", invalid(MsgEmailRequired)
	}

	if honeypotFilled(sub.Website) {
		return "", spam()
	}

	if loadedAt := parseLoadTime(sub.FormLoadTime); loadedAt > 0 {
		elapsed := now.UnixMilli() - loadedAt
		if elapsed < MinFormFillTime.Milliseconds() {
			return "", spam()
		}
	}

	lead := normalizedLead{Email: NormalizeEmail(raw)}
	if err := getValidator().Struct(lead); err != nil {
		if failedTag(err) == "required" {
			return "", invalid(MsgEmailRequired)
		}
		return "", invalid(MsgInvalidEmail)
	}

	return lead.Email, nil
}

// honeypotFilled reports whether the hidden website field carries anything
// other than a falsy or blank value. Arrays count as blank when their
// comma-joined string form is blank, so [] and [""] are not spam.
func honeypotFilled(v any) bool {
	switch w := v.(type) {
	case nil:
		return false
	case string:
		return trimFormSpace(w) != ""
	case bool:
		return w
	case float64:
		return w != 0 && !math.IsNaN(w)
	case []any:
		return trimFormSpace(joinValue(w)) != ""
	default:
		return true
	}
}

// joinValue renders an array the way string coercion of a JSON array does:
// elements joined with ",", null as empty, nested arrays flattened the same
// way and objects as "[object Object]".
func joinValue(items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		switch t := item.(type) {
		case nil:
		case string:
			parts[i] = t
		case bool:
			parts[i] = strconv.FormatBool(t)
		case float64:
			parts[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case []any:
			parts[i] = joinValue(t)
		default:
			parts[i] = "[object Object]"
		}
	}
	return strings.Join(parts, ",")
}

// parseLoadTime reads form_load_time as integer milliseconds. Anything that
// does not start with an integer yields 0, which disables the timing check.
func parseLoadTime(v any) int64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int64(t)
	case string:
		return leadingInt(t)
	default:
		return 0
	}
}

// leadingInt parses the optional sign and leading decimal digits of s,
// ignoring leading whitespace and anything after the digits.
func leadingInt(s string) int64 {
	s = trimFormSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ─── SERVICE ──────────────────────────────────────────────────────────────────

// LeadService registers landing-page signups with the provider.
type LeadService struct {
	provider  email.Provider   // nil while RESEND_API_KEY is missing
	notifier  webhook.Notifier // nil disables the downstream notification
	segmentID string
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewLeadService constructs a LeadService. provider and notifier may be nil.
func NewLeadService(
	provider email.Provider,
	notifier webhook.Notifier,
	segmentID string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LeadService {
	return &LeadService{
		provider:  provider,
		notifier:  notifier,
		segmentID: segmentID,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used by the timing check.
func (s *LeadService) WithClock(now func() time.Time) *LeadService {
	s.now = now
	return s
}

// Configured reports whether the provider is available.
func (s *LeadService) Configured() bool {
	return s.provider != nil
}

// Submit validates sub and registers the address in the leads segment.
//
// The provider has no upsert, so the contact is created first; when it
// already exists it is attached to the segment instead. Any other provider
// failure is returned. After a successful registration the webhook is
// notified; its failure is only logged.
func (s *LeadService) Submit(ctx context.Context, sub LeadSubmission) (LeadResult, error) {
	if !s.Configured() {
		s.metrics.LeadSignup(metrics.OutcomeNotConfigured)
		return LeadResult{}, ErrNotConfigured
	}

	addr, err := ValidateLead(sub, s.now())
	if err != nil {
		s.metrics.LeadSignup(metrics.OutcomeRejected)
		return LeadResult{}, err
	}

	res := LeadResult{LeadID: uuid.NewString(), Email: addr}

	err = s.provider.CreateContact(ctx, email.Contact{
		Email:        addr,
		Unsubscribed: false,
		Properties:   map[string]string{"LeadType": LeadTypeLandingPage},
		SegmentIDs:   []string{s.segmentID},
	})
	switch {
	case err == nil:
		s.logger.Info("lead: contact added to leads segment", "email", addr, "lead_id", res.LeadID)
		s.metrics.LeadSignup(metrics.OutcomeCreated)

	case email.IsAlreadyExists(err):
		if segErr := s.provider.AddToSegment(ctx, addr, s.segmentID); segErr != nil {
			s.metrics.LeadSignup(metrics.OutcomeFailed)
			return LeadResult{}, fmt.Errorf("add existing contact to segment: %w", segErr)
		}
		res.Existing = true
		s.logger.Info("lead: existing contact added to leads segment", "email", addr, "lead_id", res.LeadID)
		s.metrics.LeadSignup(metrics.OutcomeExisting)

	default:
		s.metrics.LeadSignup(metrics.OutcomeFailed)
		return LeadResult{}, fmt.Errorf("create contact: %w", err)
	}

	s.notify(ctx, res)
	return res, nil
}

func (s *LeadService) notify(ctx context.Context, res LeadResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLead(ctx, res.LeadID, res.Email); err != nil {
		s.metrics.BestEffortFailure("webhook")
		s.logger.Error("lead: webhook notify failed",
			"error", err,
			"lead_id", res.LeadID,
		)
	}
}
