package api

import (
	"errors"
	"net/http"

	"github.com/airshopworks/landing-backend/internal/intake"
)

type estimateResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ─── POST /api/send-estimate ──────────────────────────────────────────────────

// handleSendEstimate emails the ROI estimate to the submitted addresses.
//
// Errors:
//
//	400: emails missing, not an array, or empty
//	500: provider not configured, or the send failed
func (s *Server) handleSendEstimate(w http.ResponseWriter, r *http.Request) {
	if !s.estimates.Configured() {
		s.logger.Error("estimate: RESEND_API_KEY not configured", logField(r))
		respondErr(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	var sub intake.EstimateSubmission
	if !decode(w, r, &sub) {
		return
	}

	id, err := s.estimates.Send(r.Context(), sub)
	if err != nil {
		var verr *intake.ValidationError
		switch {
		case errors.As(err, &verr):
			respondErr(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, intake.ErrNotConfigured):
			respondErr(w, http.StatusInternalServerError, "Email service not configured")
		default:
			s.respondInternalErr(w, r, err, "Failed to send email")
		}
		return
	}

	respond(w, http.StatusOK, estimateResponse{Success: true, ID: id})
}
