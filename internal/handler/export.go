package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
	"github.com/legphel-eats/fnb-dashboard/internal/export"
)

// ExportService defines the dashboard methods needed by export handlers.
// Satisfied by *dashboard.Dashboard; narrow interface for testability.
type ExportService interface {
	PrepareExport(ctx context.Context, req dashboard.ExportRequest) (dashboard.ExportData, error)
	LoadMenuItems(ctx context.Context) (<-chan struct{}, error)
	MenuItems() (dashboard.Publication, bool)
}

// ExportHandler streams spreadsheet and PDF reports.
type ExportHandler struct {
	svc      ExportService
	notifier dashboard.Notifier
}

// NewExportHandler creates a new ExportHandler. notifier may be nil.
func NewExportHandler(svc ExportService, notifier dashboard.Notifier) *ExportHandler {
	return &ExportHandler{svc: svc, notifier: notifier}
}

// RegisterRoutes registers export endpoints.
// Expected to be mounted at /export.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bills.xlsx", h.Bills)
	r.Get("/menu-items.xlsx", h.MenuItemsXLSX)
	r.Get("/menu-items.pdf", h.MenuItemsPDF)
}

// Bills handles GET /export/bills.xlsx?start_date=&end_date=&q=&status=
func (h *ExportHandler) Bills(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.notify(enum.NotifyInfo, "Preparing export...")
	data, err := h.svc.PrepareExport(r.Context(), dashboard.ExportRequest{Filter: f})
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBillReport(&buf, data); err != nil {
		h.notify(enum.NotifyError, "Failed to export to Excel: "+err.Error())
		writeError(w, err)
		return
	}

	h.notify(enum.NotifySuccess, "Excel file exported successfully")
	writeFile(w, export.ContentTypeXLSX, export.BillReportFilename(data.Start, data.End), buf.Bytes())
}

// MenuItemsXLSX handles GET /export/menu-items.xlsx
func (h *ExportHandler) MenuItemsXLSX(w http.ResponseWriter, r *http.Request) {
	pub, err := h.completeMenuItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMenuItems(&buf, pub.Items, pub.Totals); err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, export.ContentTypeXLSX, export.MenuItemsFilename(pub, "xlsx"), buf.Bytes())
}

// MenuItemsPDF handles GET /export/menu-items.pdf
func (h *ExportHandler) MenuItemsPDF(w http.ResponseWriter, r *http.Request) {
	pub, err := h.completeMenuItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMenuItemsPDF(&buf, pub); err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, export.ContentTypePDF, export.MenuItemsFilename(pub, "pdf"), buf.Bytes())
}

// completeMenuItems returns the complete aggregate, running the two-phase
// load to completion first when only a partial one (or none) is published.
func (h *ExportHandler) completeMenuItems(ctx context.Context) (dashboard.Publication, error) {
	if pub, ok := h.svc.MenuItems(); ok && pub.Phase == enum.PhaseComplete {
		return pub, nil
	}

	done, err := h.svc.LoadMenuItems(ctx)
	if err != nil {
		return dashboard.Publication{}, err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return dashboard.Publication{}, ctx.Err()
	}

	pub, _ := h.svc.MenuItems()
	return pub, nil
}

func (h *ExportHandler) notify(kind, message string) {
	if h.notifier != nil {
		h.notifier.Notify(kind, message)
	}
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
