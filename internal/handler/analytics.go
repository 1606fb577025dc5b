package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/legphel-eats/fnb-dashboard/internal/aggregate"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
)

// AnalyticsService defines the dashboard methods needed by analytics handlers.
// Satisfied by *dashboard.Dashboard; narrow interface for testability.
type AnalyticsService interface {
	LoadMenuItems(ctx context.Context) (<-chan struct{}, error)
	MenuItems() (dashboard.Publication, bool)
	Charts(ctx context.Context) (aggregate.Charts, error)
}

// AnalyticsHandler handles chart and menu-item endpoints.
type AnalyticsHandler struct {
	svc AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// RegisterRoutes registers analytics endpoints.
// Expected to be mounted at /analytics.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/charts", h.Charts)
	r.Get("/menu-items", h.MenuItems)
	r.Post("/menu-items/refresh", h.RefreshMenuItems)
}

// Charts handles GET /analytics/charts
func (h *AnalyticsHandler) Charts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.svc.Charts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

// MenuItems handles GET /analytics/menu-items. The first call starts the
// two-phase load and answers with the partial aggregate.
func (h *AnalyticsHandler) MenuItems(w http.ResponseWriter, r *http.Request) {
	if pub, ok := h.svc.MenuItems(); ok {
		writeJSON(w, http.StatusOK, pub)
		return
	}
	h.load(w, r, http.StatusOK)
}

// RefreshMenuItems handles POST /analytics/menu-items/refresh. The complete
// aggregate follows on the WebSocket feed.
func (h *AnalyticsHandler) RefreshMenuItems(w http.ResponseWriter, r *http.Request) {
	h.load(w, r, http.StatusAccepted)
}

func (h *AnalyticsHandler) load(w http.ResponseWriter, r *http.Request, status int) {
	if _, err := h.svc.LoadMenuItems(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	pub, _ := h.svc.MenuItems()
	writeJSON(w, status, pub)
}
