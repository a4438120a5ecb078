package intake

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/airshopworks/landing-backend/internal/email"
	"github.com/airshopworks/landing-backend/internal/metrics"
)

//go:embed templates/estimate.html
var templatesFS embed.FS

var estimateTmpl = template.Must(template.ParseFS(templatesFS, "templates/estimate.html"))

// Display is a value the calculator already formatted for display, e.g.
// "$1,234" or 12.5. It is rendered verbatim and never re-validated.
type Display string

// UnmarshalJSON accepts any JSON scalar. Numbers keep their literal text and
// null becomes the empty string.
func (d *Display) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*d = ""
	case string:
		*d = Display(t)
	case float64:
		*d = Display(b)
	case bool:
		*d = Display(fmt.Sprint(t))
	default:
		*d = Display(b)
	}
	return nil
}

// EstimateSubmission is the ROI calculator result plus the addresses to send
// it to. Emails[0] is the primary address.
type EstimateSubmission struct {
	Emails  []string `json:"emails" validate:"required,min=1"`
	Name    Display  `json:"name"`
	Company Display  `json:"company"`

	BillingRate    Display `json:"billingRate"`
	MonthlyLoss    Display `json:"monthlyLoss"`
	YearlyLoss     Display `json:"yearlyLoss"`
	HoursMonthly   Display `json:"hoursMonthly"`
	HoursWeekly    Display `json:"hoursWeekly"`
	QuotesPerWeek  Display `json:"quotesPerWeek"`
	TimePerQuote   Display `json:"timePerQuote"`
	WastedPerQuote Display `json:"wastedPerQuote"`
	InventoryHours Display `json:"inventoryHours"`
	StockoutDays   Display `json:"stockoutDays"`
}

// UnmarshalJSON reads the calculator fields by their exact key. A non-array
// emails value decodes as no emails, so it fails validation instead of the
// whole body.
func (s *EstimateSubmission) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	*s = EstimateSubmission{}
	if raw, ok := fields["emails"]; ok {
		var emails []string
		if json.Unmarshal(raw, &emails) == nil {
			s.Emails = emails
		}
	}
	for key, dst := range s.displayFields() {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := dst.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *EstimateSubmission) displayFields() map[string]*Display {
	return map[string]*Display{
		"name":           &s.Name,
		"company":        &s.Company,
		"billingRate":    &s.BillingRate,
		"monthlyLoss":    &s.MonthlyLoss,
		"yearlyLoss":     &s.YearlyLoss,
		"hoursMonthly":   &s.HoursMonthly,
		"hoursWeekly":    &s.HoursWeekly,
		"quotesPerWeek":  &s.QuotesPerWeek,
		"timePerQuote":   &s.TimePerQuote,
		"wastedPerQuote": &s.WastedPerQuote,
		"inventoryHours": &s.InventoryHours,
		"stockoutDays":   &s.StockoutDays,
	}
}

// EstimateSubject is the subject line for sub.
func EstimateSubject(sub EstimateSubmission) string {
	return fmt.Sprintf("Your Lost Revenue Estimate: %s/year", sub.YearlyLoss)
}

// RenderEstimate renders the HTML email body. Values are HTML-escaped.
func RenderEstimate(sub EstimateSubmission) (string, error) {
	var buf bytes.Buffer
	if err := estimateTmpl.Execute(&buf, sub); err != nil {
		return "", fmt.Errorf("render estimate: %w", err)
	}
	return buf.String(), nil
}

// ─── SERVICE ──────────────────────────────────────────────────────────────────

// EstimateConfig holds the fixed identities used by EstimateService.
type EstimateConfig struct {
	From       string // sender, e.g. "AirShop <hello@airshop.works>"
	LeadsBcc   string // internal lead-tracking mailbox
	AudienceID string // marketing audience the primary address joins
}

// EstimateService emails an ROI estimate and adds the primary recipient to the
// marketing audience.
type EstimateService struct {
	provider email.Provider // nil while RESEND_API_KEY is missing
	cfg      EstimateConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewEstimateService constructs an EstimateService. provider may be nil.
func NewEstimateService(provider email.Provider, cfg EstimateConfig, m *metrics.Metrics, logger *slog.Logger) *EstimateService {
	return &EstimateService{
		provider: provider,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Configured reports whether the provider is available.
func (s *EstimateService) Configured() bool {
	return s.provider != nil
}

// Send emails the estimate to every address in sub.Emails, blind-copying the
// leads mailbox, and returns the provider message id. A send failure aborts
// before the audience call; an audience failure is logged and ignored.
func (s *EstimateService) Send(ctx context.Context, sub EstimateSubmission) (string, error) {
	if !s.Configured() {
		s.metrics.Estimate(metrics.OutcomeNotConfigured)
		return "", ErrNotConfigured
	}

	if err := getValidator().Struct(sub); err != nil {
		s.metrics.Estimate(metrics.OutcomeRejected)
		return "", invalid(MsgEmailsRequired)
	}

	html, err := RenderEstimate(sub)
	if err != nil {
		s.metrics.Estimate(metrics.OutcomeFailed)
		return "", err
	}

	id, err := s.provider.SendEmail(ctx, email.Message{
		From:    s.cfg.From,
		To:      sub.Emails,
		Bcc:     []string{s.cfg.LeadsBcc},
		Subject: EstimateSubject(sub),
		HTML:    html,
	})
	if err != nil {
		s.metrics.Estimate(metrics.OutcomeFailed)
		return "", fmt.Errorf("send estimate: %w", err)
	}
	s.metrics.Estimate(metrics.OutcomeSent)

	err = s.provider.AddToAudience(ctx, email.AudienceContact{
		AudienceID: s.cfg.AudienceID,
		Email:      sub.Emails[0],
		FirstName:  string(sub.Name),
	})
	if err != nil {
		s.metrics.BestEffortFailure("audience")
		s.logger.Error("estimate: failed to add contact to audience", "error", err, "email", sub.Emails[0])
	} else {
		s.logger.Info("estimate: contact added to audience", "email", sub.Emails[0])
	}

	s.logger.Info("estimate sent",
		"emails", sub.Emails,
		"name", string(sub.Name),
		"company", string(sub.Company),
		"yearly_loss", string(sub.YearlyLoss),
		"timestamp", s.now().UTC().Format(time.RFC3339),
		"message_id", id,
	)

	return id, nil
}
