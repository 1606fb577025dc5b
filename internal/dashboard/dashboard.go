// Package dashboard is the state facade of the billing dashboard. A
// Dashboard owns the loaded bill list, the current selection, the detail
// cache and the published menu-item aggregate, and keeps the three
// consistent across mutations.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/cache"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
	"github.com/legphel-eats/fnb-dashboard/internal/loader"
	"github.com/legphel-eats/fnb-dashboard/internal/metrics"
)

// Gateway is the remote billing API. Satisfied by *gateway.Client.
type Gateway interface {
	ListBills(ctx context.Context) ([]billing.Bill, error)
	GetBillDetails(ctx context.Context, billNo string) ([]billing.BillDetail, error)
	CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error)
	UpdateBill(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error)
	DeleteBill(ctx context.Context, billNo string) error
	CreateBillDetail(ctx context.Context, billNo string, detail billing.BillDetail) (billing.BillDetail, error)
	UpdateBillDetail(ctx context.Context, id string, detail billing.BillDetail) (billing.BillDetail, error)
	DeleteBillDetail(ctx context.Context, id string) error
}

// Notifier shows a transient message to the operator.
type Notifier interface {
	Notify(kind, message string)
}

// Publisher pushes state changes to connected views.
type Publisher interface {
	Publish(event string, payload any)
}

// DefaultRecentWindowDays is the size of the first menu-item phase.
const DefaultRecentWindowDays = 30

// Options configures a Dashboard. Zero values fall back to defaults.
type Options struct {
	Concurrency      int
	RecentWindowDays int
	Location         *time.Location
	Now              func() time.Time
	Notifier         Notifier
	Publisher        Publisher
	Metrics          *metrics.Metrics
}

// Dashboard is the application state. Create one with New at startup and
// release it with Close at shutdown.
type Dashboard struct {
	gw        Gateway
	cache     *cache.DetailCache
	loader    *loader.Loader
	notifier  Notifier
	publisher Publisher
	metrics   *metrics.Metrics
	window    int
	loc       *time.Location
	now       func() time.Time

	// Background backfills run under ctx and are tracked by wg.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.RWMutex
	bills          []billing.Bill
	current        *billing.Bill
	currentDetails []billing.BillDetail
	menu           *Publication
	// generation increments on every change to bills or cached details, so
	// an in-flight menu-item load can tell its accumulator went stale.
	generation uint64
}

// New creates a Dashboard over gw.
func New(gw Gateway, opts Options) *Dashboard {
	if opts.RecentWindowDays <= 0 {
		opts.RecentWindowDays = DefaultRecentWindowDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{}
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}

	c := cache.New()
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		gw:    gw,
		cache: c,
		loader: loader.New(gw, c, loader.Options{
			Concurrency: opts.Concurrency,
			Policy:      loader.PolicyDegrade,
			Context:     ctx,
			Metrics:     opts.Metrics,
		}),
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		window:    opts.RecentWindowDays,
		loc:       opts.Location,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close cancels background loads and in-flight detail fetches and waits for
// them to return.
func (d *Dashboard) Close() {
	d.cancel()
	d.wg.Wait()
	d.loader.Wait()
}

// Cache exposes the detail cache for read-only inspection.
func (d *Dashboard) Cache() *cache.DetailCache {
	return d.cache
}

// today returns the current time in the dashboard's location.
func (d *Dashboard) today() time.Time {
	return d.now().In(d.loc)
}

// --- Bill list ---

// LoadBills replaces the bill list with the upstream one, newest first.
func (d *Dashboard) LoadBills(ctx context.Context) ([]billing.Bill, error) {
	bills, err := d.gw.ListBills(ctx)
	if err != nil {
		d.fail("Failed to load bills", err)
		return nil, err
	}

	d.mu.Lock()
	d.bills = bills
	if d.current != nil && indexOfBill(bills, d.current.BillNo) < 0 {
		d.clearSelectionLocked()
	}
	pub := d.changedLocked()
	out := slices.Clone(d.bills)
	d.mu.Unlock()

	slog.Info("bills loaded", "count", len(out))
	d.publisher.Publish(enum.EventBillsReloaded, map[string]int{"count": len(out)})
	d.republish(pub)
	return out, nil
}

// Bills returns a copy of the loaded bill list.
func (d *Dashboard) Bills() []billing.Bill {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.bills)
}

// Bill returns the loaded bill with billNo.
func (d *Dashboard) Bill(billNo string) (billing.Bill, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := indexOfBill(d.bills, billNo)
	if i < 0 {
		return billing.Bill{}, ErrBillNotFound
	}
	return d.bills[i], nil
}

// FilterBills returns the loaded bills matching f.
func (d *Dashboard) FilterBills(f Filter) []billing.Bill {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return f.Apply(d.bills)
}

// --- Selection ---

// Selection is the bill being viewed and its working set of details.
type Selection struct {
	Bill    billing.Bill         `json:"bill"`
	Details []billing.BillDetail `json:"details"`
}

// ViewBillDetails fetches billNo's details, caches them and selects the
// bill. A failed fetch is reported and leaves cache and selection untouched.
func (d *Dashboard) ViewBillDetails(ctx context.Context, billNo string) (Selection, error) {
	if _, err := d.Bill(billNo); err != nil {
		return Selection{}, err
	}

	details, err := d.gw.GetBillDetails(ctx, billNo)
	if err != nil {
		d.fail("Failed to load bill details", err)
		return Selection{}, err
	}

	d.mu.Lock()
	i := indexOfBill(d.bills, billNo)
	if i < 0 {
		// Deleted while the fetch was in flight.
		d.mu.Unlock()
		return Selection{}, ErrBillNotFound
	}
	bill := d.bills[i]
	d.current = &bill
	d.currentDetails = slices.Clone(details)
	d.cache.Set(billNo, details)
	pub := d.changedLocked()
	sel := d.selectionLocked()
	d.mu.Unlock()

	d.republish(pub)
	return sel, nil
}

// CurrentSelection returns the selected bill, if any.
func (d *Dashboard) CurrentSelection() (Selection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return Selection{}, false
	}
	return d.selectionLocked(), true
}

// Back clears the selection, returning the view to the bill summary.
func (d *Dashboard) Back() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSelectionLocked()
}

func (d *Dashboard) selectionLocked() Selection {
	details := slices.Clone(d.currentDetails)
	if details == nil {
		details = []billing.BillDetail{}
	}
	return Selection{Bill: *d.current, Details: details}
}

func (d *Dashboard) clearSelectionLocked() {
	d.current = nil
	d.currentDetails = nil
}

// --- Reporting ---

// fail logs err and surfaces it to the operator. Validation failures are
// reported field by field.
func (d *Dashboard) fail(action string, err error) {
	var verr *billing.ValidationError
	if errors.As(err, &verr) {
		for _, msg := range verr.Messages() {
			d.notifier.Notify(enum.NotifyError, msg)
		}
		return
	}
	slog.Error(action, "error", err)
	d.notifier.Notify(enum.NotifyError, fmt.Sprintf("%s: %v", action, err))
}

func (d *Dashboard) succeed(message string) {
	d.notifier.Notify(enum.NotifySuccess, message)
}

func indexOfBill(bills []billing.Bill, billNo string) int {
	return slices.IndexFunc(bills, func(b billing.Bill) bool { return b.BillNo == billNo })
}

type logNotifier struct{}

func (logNotifier) Notify(kind, message string) {
	slog.Info("notification", "kind", kind, "message", message)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
