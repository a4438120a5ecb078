package api

import (
	"errors"
	"net/http"

	"github.com/airshopworks/landing-backend/internal/email"
	"github.com/airshopworks/landing-backend/internal/intake"
)

// ─── POST /api/signup-lead ────────────────────────────────────────────────────

// handleSignupLead adds a landing-page signup to the leads segment.
//
// Spam-flagged submissions get the same generic 400 as any other invalid
// submission.
func (s *Server) handleSignupLead(w http.ResponseWriter, r *http.Request) {
	if !s.leads.Configured() {
		s.logger.Error("lead: RESEND_API_KEY not configured", logField(r))
		respondErr(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	var sub intake.LeadSubmission
	if !decode(w, r, &sub) {
		return
	}

	_, err := s.leads.Submit(r.Context(), sub)
	if err == nil {
		respond(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	var (
		verr   *intake.ValidationError
		apiErr *email.APIError
	)
	switch {
	case errors.As(err, &verr):
		if verr.Spam {
			s.logger.Info("lead: submission flagged as spam", logField(r))
		}
		respondErr(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, intake.ErrNotConfigured):
		respondErr(w, http.StatusInternalServerError, "Email service not configured")
	case errors.As(err, &apiErr):
		s.respondInternalErr(w, r, err, "Failed to add you to the list. Please try again.")
	default:
		s.respondInternalErr(w, r, err, "Failed to sign up. Please try again.")
	}
}
