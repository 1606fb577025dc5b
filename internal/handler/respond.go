package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/gateway"
)

type confirmationResponse struct {
	Error             string    `json:"error"`
	Message           string    `json:"message"`
	Action            string    `json:"action"`
	Target            string    `json:"target"`
	ConfirmationToken string    `json:"confirmation_token"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type upstreamResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// writeError maps dashboard, billing and gateway errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr     *billing.ValidationError
		confirm  *dashboard.ConfirmationRequiredError
		apiErr   *gateway.APIError
		notFound = errors.Is(err, dashboard.ErrBillNotFound) || errors.Is(err, dashboard.ErrDetailNotFound)
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.As(err, &confirm):
		writeJSON(w, http.StatusConflict, confirmationResponse{
			Error:             "confirmation required",
			Message:           confirm.Prompt.Message,
			Action:            confirm.Prompt.Action,
			Target:            confirm.Prompt.Target,
			ConfirmationToken: confirm.Token,
			ExpiresAt:         confirm.ExpiresAt,
		})
	case errors.Is(err, dashboard.ErrNotConfirmed), errors.Is(err, dashboard.ErrNoBillSelected):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case notFound, errors.Is(err, dashboard.ErrNothingToExport):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	// Checked before APIError: a gateway error may wrap the context's.
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "upstream request timed out"})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, upstreamResponse{Error: apiErr.Message, UpstreamStatus: apiErr.Status})
	default:
		slog.Error("Unhandled request error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// parseFilter reads q, status, start_date and end_date. Dates may be
// YYYY-MM-DD or DD-MM-YYYY; a missing bound is left open.
func parseFilter(r *http.Request) (dashboard.Filter, error) {
	q := r.URL.Query()
	f := dashboard.Filter{
		Query:  q.Get("q"),
		Status: q.Get("status"),
	}

	if s := q.Get("start_date"); s != "" {
		d, err := billing.ParseDate(s)
		if err != nil {
			return dashboard.Filter{}, errors.New("invalid start_date format")
		}
		f.Start = d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := billing.ParseDate(s)
		if err != nil {
			return dashboard.Filter{}, errors.New("invalid end_date format")
		}
		f.End = d
	}

	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return dashboard.Filter{}, errors.New("start_date must not be after end_date")
	}
	if f.Status != "" && !billing.IsValidStatus(f.Status) {
		return dashboard.Filter{}, errors.New("invalid status filter")
	}
	return f, nil
}
