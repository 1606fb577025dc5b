package handler_test

import (
	"context"

	"github.com/legphel-eats/fnb-dashboard/internal/aggregate"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
)

// --- Mock dashboard ---

// mockDashboard implements every handler service. Unset functions return
// zero values.
type mockDashboard struct {
	loadBills        func(ctx context.Context) ([]billing.Bill, error)
	filterBills      func(f dashboard.Filter) []billing.Bill
	createBill       func(ctx context.Context, bill billing.Bill) (billing.Bill, error)
	updateBill       func(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error)
	deleteBill       func(ctx context.Context, billNo string, c dashboard.Confirmer) error
	viewBillDetails  func(ctx context.Context, billNo string) (dashboard.Selection, error)
	selection        *dashboard.Selection
	backCalls        int
	createBillDetail func(ctx context.Context, billNo string, d billing.BillDetail) (billing.BillDetail, error)
	updateBillDetail func(ctx context.Context, id string, d billing.BillDetail) (billing.BillDetail, error)
	deleteBillDetail func(ctx context.Context, id string, c dashboard.Confirmer) error

	loadMenuItems func(ctx context.Context) (<-chan struct{}, error)
	menuItems     *dashboard.Publication
	charts        func(ctx context.Context) (aggregate.Charts, error)
	prepareExport func(ctx context.Context, req dashboard.ExportRequest) (dashboard.ExportData, error)
}

func (m *mockDashboard) LoadBills(ctx context.Context) ([]billing.Bill, error) {
	if m.loadBills == nil {
		return nil, nil
	}
	return m.loadBills(ctx)
}

func (m *mockDashboard) FilterBills(f dashboard.Filter) []billing.Bill {
	if m.filterBills == nil {
		return []billing.Bill{}
	}
	return m.filterBills(f)
}

func (m *mockDashboard) CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error) {
	if m.createBill == nil {
		return bill, nil
	}
	return m.createBill(ctx, bill)
}

func (m *mockDashboard) UpdateBill(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error) {
	if m.updateBill == nil {
		return bill, nil
	}
	return m.updateBill(ctx, billNo, bill)
}

func (m *mockDashboard) DeleteBill(ctx context.Context, billNo string, c dashboard.Confirmer) error {
	if m.deleteBill == nil {
		return nil
	}
	return m.deleteBill(ctx, billNo, c)
}

func (m *mockDashboard) ViewBillDetails(ctx context.Context, billNo string) (dashboard.Selection, error) {
	if m.viewBillDetails == nil {
		return dashboard.Selection{}, nil
	}
	return m.viewBillDetails(ctx, billNo)
}

func (m *mockDashboard) CurrentSelection() (dashboard.Selection, bool) {
	if m.selection == nil {
		return dashboard.Selection{}, false
	}
	return *m.selection, true
}

func (m *mockDashboard) Back() {
	m.backCalls++
	m.selection = nil
}

func (m *mockDashboard) CreateBillDetail(ctx context.Context, billNo string, d billing.BillDetail) (billing.BillDetail, error) {
	if m.createBillDetail == nil {
		return d, nil
	}
	return m.createBillDetail(ctx, billNo, d)
}

func (m *mockDashboard) UpdateBillDetail(ctx context.Context, id string, d billing.BillDetail) (billing.BillDetail, error) {
	if m.updateBillDetail == nil {
		return d, nil
	}
	return m.updateBillDetail(ctx, id, d)
}

func (m *mockDashboard) DeleteBillDetail(ctx context.Context, id string, c dashboard.Confirmer) error {
	if m.deleteBillDetail == nil {
		return nil
	}
	return m.deleteBillDetail(ctx, id, c)
}

func (m *mockDashboard) LoadMenuItems(ctx context.Context) (<-chan struct{}, error) {
	if m.loadMenuItems == nil {
		done := make(chan struct{})
		close(done)
		return done, nil
	}
	return m.loadMenuItems(ctx)
}

func (m *mockDashboard) MenuItems() (dashboard.Publication, bool) {
	if m.menuItems == nil {
		return dashboard.Publication{}, false
	}
	return *m.menuItems, true
}

func (m *mockDashboard) Charts(ctx context.Context) (aggregate.Charts, error) {
	if m.charts == nil {
		return aggregate.Charts{}, nil
	}
	return m.charts(ctx)
}

func (m *mockDashboard) PrepareExport(ctx context.Context, req dashboard.ExportRequest) (dashboard.ExportData, error) {
	if m.prepareExport == nil {
		return dashboard.ExportData{}, dashboard.ErrNothingToExport
	}
	return m.prepareExport(ctx, req)
}

// --- Mock notifier ---

type mockNotifier struct {
	kinds []string
}

func (m *mockNotifier) Notify(kind, _ string) {
	m.kinds = append(m.kinds, kind)
}
