package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
)

// BillsService defines the dashboard methods needed by bill handlers.
// Satisfied by *dashboard.Dashboard; narrow interface for testability.
type BillsService interface {
	LoadBills(ctx context.Context) ([]billing.Bill, error)
	FilterBills(f dashboard.Filter) []billing.Bill
	CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error)
	UpdateBill(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error)
	DeleteBill(ctx context.Context, billNo string, c dashboard.Confirmer) error
	ViewBillDetails(ctx context.Context, billNo string) (dashboard.Selection, error)
	CurrentSelection() (dashboard.Selection, bool)
	Back()
	CreateBillDetail(ctx context.Context, billNo string, detail billing.BillDetail) (billing.BillDetail, error)
	UpdateBillDetail(ctx context.Context, id string, detail billing.BillDetail) (billing.BillDetail, error)
	DeleteBillDetail(ctx context.Context, id string, c dashboard.Confirmer) error
}

// BillsHandler handles bill, bill-detail and selection endpoints.
type BillsHandler struct {
	svc      BillsService
	confirms *dashboard.Confirmations
}

// NewBillsHandler creates a new BillsHandler.
func NewBillsHandler(svc BillsService, confirms *dashboard.Confirmations) *BillsHandler {
	return &BillsHandler{svc: svc, confirms: confirms}
}

// RegisterRoutes registers read and write endpoints.
func (h *BillsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bills", h.List)
	r.Post("/bills", h.Create)
	r.Post("/bills/reload", h.Reload)
	r.Put("/bills/{billNo}", h.Update)
	r.Get("/bills/{billNo}/details", h.ViewDetails)
	r.Post("/bills/{billNo}/details", h.CreateDetail)
	r.Put("/details/{id}", h.UpdateDetail)
	r.Get("/selection", h.Selection)
	r.Post("/selection/back", h.Back)
}

// RegisterDeleteRoutes registers destructive endpoints.
// Expected to be mounted behind an OWNER role check.
func (h *BillsHandler) RegisterDeleteRoutes(r chi.Router) {
	r.Delete("/bills/{billNo}", h.Delete)
	r.Delete("/details/{id}", h.DeleteDetail)
}

// --- Response types ---

type billListResponse struct {
	Bills []billing.Bill `json:"bills"`
	Count int            `json:"count"`
}

// --- Handlers ---

// List handles GET /bills?q=&status=&start_date=&end_date=
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bills := h.svc.FilterBills(f)
	writeJSON(w, http.StatusOK, billListResponse{Bills: bills, Count: len(bills)})
}

// Reload handles POST /bills/reload
func (h *BillsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	bills, err := h.svc.LoadBills(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, billListResponse{Bills: bills, Count: len(bills)})
}

// Create handles POST /bills
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var bill billing.Bill
	if err := json.NewDecoder(r.Body).Decode(&bill); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := h.svc.CreateBill(r.Context(), bill)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /bills/{billNo}
func (h *BillsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var bill billing.Bill
	if err := json.NewDecoder(r.Body).Decode(&bill); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.UpdateBill(r.Context(), chi.URLParam(r, "billNo"), bill)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /bills/{billNo}?confirm=
// Without a valid confirm token it answers 409 with a fresh token.
func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmer := h.confirms.WithToken(r.URL.Query().Get("confirm"))
	if err := h.svc.DeleteBill(r.Context(), chi.URLParam(r, "billNo"), confirmer); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ViewDetails handles GET /bills/{billNo}/details and selects the bill.
func (h *BillsHandler) ViewDetails(w http.ResponseWriter, r *http.Request) {
	sel, err := h.svc.ViewBillDetails(r.Context(), chi.URLParam(r, "billNo"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// CreateDetail handles POST /bills/{billNo}/details
func (h *BillsHandler) CreateDetail(w http.ResponseWriter, r *http.Request) {
	var detail billing.BillDetail
	if err := json.NewDecoder(r.Body).Decode(&detail); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := h.svc.CreateBillDetail(r.Context(), chi.URLParam(r, "billNo"), detail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateDetail handles PUT /details/{id} on the selected bill.
func (h *BillsHandler) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	var detail billing.BillDetail
	if err := json.NewDecoder(r.Body).Decode(&detail); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.UpdateBillDetail(r.Context(), chi.URLParam(r, "id"), detail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDetail handles DELETE /details/{id}?confirm= on the selected bill.
func (h *BillsHandler) DeleteDetail(w http.ResponseWriter, r *http.Request) {
	confirmer := h.confirms.WithToken(r.URL.Query().Get("confirm"))
	if err := h.svc.DeleteBillDetail(r.Context(), chi.URLParam(r, "id"), confirmer); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Selection handles GET /selection
func (h *BillsHandler) Selection(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.svc.CurrentSelection()
	if !ok {
		writeError(w, dashboard.ErrNoBillSelected)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// Back handles POST /selection/back
func (h *BillsHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.svc.Back()
	w.WriteHeader(http.StatusNoContent)
}
