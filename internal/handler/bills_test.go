package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/gateway"
	"github.com/legphel-eats/fnb-dashboard/internal/handler"
)

// --- Helpers ---

func setupBillsRouter(svc *mockDashboard) http.Handler {
	r := chi.NewRouter()
	h := handler.NewBillsHandler(svc, dashboard.NewConfirmations(time.Minute))
	h.RegisterRoutes(r)
	h.RegisterDeleteRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v (status %d)", err, rr.Code)
	}
	return body
}

// --- List ---

func TestListBills_PassesFilter(t *testing.T) {
	var got dashboard.Filter
	svc := &mockDashboard{
		filterBills: func(f dashboard.Filter) []billing.Bill {
			got = f
			return []billing.Bill{{BillNo: "B1"}, {BillNo: "B2"}}
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "GET", "/bills?q=t1&status=PAID&start_date=2024-03-01&end_date=15-03-2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	if got.Query != "t1" || got.Status != "PAID" {
		t.Errorf("filter text: got %+v", got)
	}
	if got.Start != billing.NewDate(2024, time.March, 1) || got.End != billing.NewDate(2024, time.March, 15) {
		t.Errorf("filter dates: got %v..%v", got.Start, got.End)
	}
	if body := decodeBody(t, rr); body["count"] != float64(2) {
		t.Errorf("count: got %v, want 2", body["count"])
	}
}

func TestListBills_InvalidFilter(t *testing.T) {
	svc := &mockDashboard{
		filterBills: func(dashboard.Filter) []billing.Bill {
			t.Error("FilterBills must not be called for an invalid filter")
			return nil
		},
	}
	router := setupBillsRouter(svc)

	tests := []struct {
		name  string
		query string
	}{
		{"bad start date", "start_date=yesterday"},
		{"bad end date", "end_date=2024-13-45"},
		{"start after end", "start_date=2024-03-10&end_date=2024-03-01"},
		{"unknown status", "status=refunded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "GET", "/bills?"+tt.query, "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

// --- Create / Update ---

func TestCreateBill(t *testing.T) {
	svc := &mockDashboard{
		createBill: func(_ context.Context, b billing.Bill) (billing.Bill, error) {
			if b.BillNo != "B9" || b.Pax != 2 {
				t.Errorf("decoded bill: got %+v", b)
			}
			return b, nil
		},
	}

	body := `{"fnb_bill_no":"B9","date":"15-03-2024","time":"12:30","table_no":4,"pax":"2","total_amount":"50","payment_status":"Paid"}`
	rr := doRequest(t, setupBillsRouter(svc), "POST", "/bills", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
}

func TestCreateBill_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{
			name:       "invalid json",
			body:       `{"fnb_bill_no":`,
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
		},
		{
			name:       "validation",
			body:       `{}`,
			err:        &billing.ValidationError{Fields: map[string]string{"pax": "Pax must be at least 1"}},
			wantStatus: http.StatusBadRequest,
			wantKey:    "fields",
		},
		{
			name:       "upstream failure",
			body:       `{}`,
			err:        &gateway.APIError{Op: "create bill", Status: 500, Message: "boom"},
			wantStatus: http.StatusBadGateway,
			wantKey:    "upstream_status",
		},
		{
			name:       "timeout",
			body:       `{}`,
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantKey:    "error",
		},
		{
			name:       "gateway timeout",
			body:       `{}`,
			err:        &gateway.APIError{Op: "create bill", Message: "billing API unreachable", Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantKey:    "error",
		},
		{
			name:       "unexpected",
			body:       `{}`,
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDashboard{
				createBill: func(context.Context, billing.Bill) (billing.Bill, error) {
					return billing.Bill{}, tt.err
				},
			}
			rr := doRequest(t, setupBillsRouter(svc), "POST", "/bills", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if _, ok := decodeBody(t, rr)[tt.wantKey]; !ok {
				t.Errorf("response missing %q", tt.wantKey)
			}
		})
	}
}

func TestUpdateBill_NotFound(t *testing.T) {
	svc := &mockDashboard{
		updateBill: func(_ context.Context, billNo string, _ billing.Bill) (billing.Bill, error) {
			if billNo != "B404" {
				t.Errorf("billNo: got %q", billNo)
			}
			return billing.Bill{}, dashboard.ErrBillNotFound
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "PUT", "/bills/B404", `{"fnb_bill_no":"B404"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Delete (two-step confirmation) ---

func TestDeleteBill_ConfirmationFlow(t *testing.T) {
	deleted := 0
	svc := &mockDashboard{
		deleteBill: func(ctx context.Context, billNo string, c dashboard.Confirmer) error {
			if err := c.Confirm(ctx, dashboard.Prompt{Action: "delete_bill", Target: billNo, Message: "Delete bill " + billNo + "?"}); err != nil {
				return err
			}
			deleted++
			return nil
		},
	}
	router := setupBillsRouter(svc)

	rr := doRequest(t, router, "DELETE", "/bills/B1", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("first call status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeBody(t, rr)
	token, _ := body["confirmation_token"].(string)
	if token == "" || body["target"] != "B1" {
		t.Fatalf("unexpected confirmation body: %v", body)
	}
	if deleted != 0 {
		t.Fatal("bill deleted without confirmation")
	}

	// A token for B1 does not approve B2.
	rr = doRequest(t, router, "DELETE", "/bills/B2?confirm="+token, "")
	if rr.Code != http.StatusConflict {
		t.Errorf("foreign target status: got %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = doRequest(t, router, "DELETE", "/bills/B1?confirm="+token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("confirmed status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if deleted != 1 {
		t.Errorf("deleted: got %d, want 1", deleted)
	}

	// Tokens are single-use.
	rr = doRequest(t, router, "DELETE", "/bills/B1?confirm="+token, "")
	if rr.Code != http.StatusConflict {
		t.Errorf("reused token status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestDeleteBill_Declined(t *testing.T) {
	svc := &mockDashboard{
		deleteBill: func(context.Context, string, dashboard.Confirmer) error {
			return dashboard.ErrNotConfirmed
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "DELETE", "/bills/B1", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Details and selection ---

func TestViewDetails(t *testing.T) {
	svc := &mockDashboard{
		viewBillDetails: func(_ context.Context, billNo string) (dashboard.Selection, error) {
			return dashboard.Selection{
				Bill:    billing.Bill{BillNo: billNo},
				Details: []billing.BillDetail{{ID: "1", MenuName: billing.StringPtr("Tea"), Quantity: 2}},
			}, nil
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "GET", "/bills/B1/details", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"Tea"`) {
		t.Errorf("body missing detail: %s", rr.Body.String())
	}
}

func TestUpdateDetail_NoSelection(t *testing.T) {
	svc := &mockDashboard{
		updateBillDetail: func(context.Context, string, billing.BillDetail) (billing.BillDetail, error) {
			return billing.BillDetail{}, dashboard.ErrNoBillSelected
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "PUT", "/details/7", `{"menu_name":"Tea","quanity":1,"rate":10}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestDeleteDetail_NotFound(t *testing.T) {
	svc := &mockDashboard{
		deleteBillDetail: func(context.Context, string, dashboard.Confirmer) error {
			return dashboard.ErrDetailNotFound
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "DELETE", "/details/99", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSelectionAndBack(t *testing.T) {
	svc := &mockDashboard{}
	router := setupBillsRouter(svc)

	rr := doRequest(t, router, "GET", "/selection", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("empty selection status: got %d, want %d", rr.Code, http.StatusConflict)
	}

	svc.selection = &dashboard.Selection{Bill: billing.Bill{BillNo: "B1"}}
	rr = doRequest(t, router, "GET", "/selection", "")
	if rr.Code != http.StatusOK {
		t.Errorf("selection status: got %d, want %d", rr.Code, http.StatusOK)
	}

	rr = doRequest(t, router, "POST", "/selection/back", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("back status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if svc.backCalls != 1 || svc.selection != nil {
		t.Error("Back was not forwarded to the dashboard")
	}
}

func TestReload_UpstreamFailure(t *testing.T) {
	svc := &mockDashboard{
		loadBills: func(context.Context) ([]billing.Bill, error) {
			return nil, &gateway.APIError{Op: "list bills", Status: 503, Message: "unavailable"}
		},
	}

	rr := doRequest(t, setupBillsRouter(svc), "POST", "/bills/reload", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if body := decodeBody(t, rr); body["upstream_status"] != float64(503) {
		t.Errorf("upstream_status: got %v", body["upstream_status"])
	}
}
