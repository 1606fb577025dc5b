package dashboard_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/gateway"
)

// --- Fake gateway ---

type fakeGateway struct {
	mu      sync.Mutex
	bills   []billing.Bill
	details map[string][]billing.BillDetail
	fail    map[string]error // op or "details:<billNo>" → error
	calls   map[string]int
	nextID  int

	// held blocks the next detail fetch of one bill; see hold.
	held *heldFetch
}

type heldFetch struct {
	billNo  string
	started chan struct{}
	release chan struct{}
}

// hold makes the next GetBillDetails for billNo read its details, close
// started and then block until release is closed.
func (f *fakeGateway) hold(billNo string) (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = &heldFetch{billNo: billNo, started: make(chan struct{}), release: make(chan struct{})}
	return f.held.started, f.held.release
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		details: make(map[string][]billing.BillDetail),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeGateway) addBill(b billing.Bill, details ...billing.BillDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bills = append(f.bills, b)
	for i := range details {
		if details[i].ID == "" {
			f.nextID++
			details[i].ID = fmt.Sprintf("D%d", f.nextID)
		}
		details[i].BillNo = b.BillNo
	}
	f.details[b.BillNo] = details
}

func (f *fakeGateway) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeGateway) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) ListBills(_ context.Context) ([]billing.Bill, error) {
	if err := f.record("ListBills"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	bills := slices.Clone(f.bills)
	billing.SortNewestFirst(bills)
	return bills, nil
}

func (f *fakeGateway) GetBillDetails(ctx context.Context, billNo string) ([]billing.BillDetail, error) {
	if err := f.record("GetBillDetails"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if err := f.fail["details:"+billNo]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	details := slices.Clone(f.details[billNo])
	held := f.held
	if held != nil && held.billNo == billNo {
		f.held = nil
	} else {
		held = nil
	}
	f.mu.Unlock()

	if held != nil {
		close(held.started)
		<-held.release
	}
	return details, nil
}

func (f *fakeGateway) CreateBill(_ context.Context, bill billing.Bill) (billing.Bill, error) {
	if err := f.record("CreateBill"); err != nil {
		return billing.Bill{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bills = append(f.bills, bill)
	return bill, nil
}

func (f *fakeGateway) UpdateBill(_ context.Context, billNo string, bill billing.Bill) (billing.Bill, error) {
	if err := f.record("UpdateBill"); err != nil {
		return billing.Bill{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bills {
		if f.bills[i].BillNo == billNo {
			f.bills[i] = bill
		}
	}
	return bill, nil
}

func (f *fakeGateway) DeleteBill(_ context.Context, billNo string) error {
	if err := f.record("DeleteBill"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bills = slices.DeleteFunc(f.bills, func(b billing.Bill) bool { return b.BillNo == billNo })
	delete(f.details, billNo)
	return nil
}

func (f *fakeGateway) CreateBillDetail(_ context.Context, billNo string, detail billing.BillDetail) (billing.BillDetail, error) {
	if err := f.record("CreateBillDetail"); err != nil {
		return billing.BillDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	detail.ID = fmt.Sprintf("D%d", f.nextID)
	detail.BillNo = billNo
	f.details[billNo] = append(f.details[billNo], detail)
	return detail, nil
}

func (f *fakeGateway) UpdateBillDetail(_ context.Context, id string, detail billing.BillDetail) (billing.BillDetail, error) {
	if err := f.record("UpdateBillDetail"); err != nil {
		return billing.BillDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for billNo, list := range f.details {
		for i := range list {
			if list[i].ID == id {
				detail.ID = id
				detail.BillNo = billNo
				list[i] = detail
				return detail, nil
			}
		}
	}
	return billing.BillDetail{}, &gateway.APIError{Op: "update bill detail", Status: 404, Message: "not found"}
}

func (f *fakeGateway) DeleteBillDetail(_ context.Context, id string) error {
	if err := f.record("DeleteBillDetail"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for billNo, list := range f.details {
		f.details[billNo] = slices.DeleteFunc(list, func(d billing.BillDetail) bool { return d.ID == id })
	}
	return nil
}

var errUpstream = &gateway.APIError{Op: "test", Status: 500, Message: "boom"}

// --- Recorders ---

type note struct {
	kind    string
	message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Notify(kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{kind, message})
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.kind
	}
	return out
}

type event struct {
	name    string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingPublisher) Publish(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name, payload})
}

func (r *recordingPublisher) named(name string) []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}
