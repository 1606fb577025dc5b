package dashboard

import (
	"context"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/aggregate"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/loader"
)

// DefaultExportDays is the export range used when none is given.
const DefaultExportDays = 30

// ExportRequest selects the bills to export. A zero Start or End defaults to
// the trailing DefaultExportDays ending today.
type ExportRequest struct {
	Filter Filter
}

// ExportData is a fully resolved snapshot handed to the exporters: every
// bill's details are present and nothing is fetched after it is built.
type ExportData struct {
	Start       billing.Date
	End         billing.Date
	Bills       []billing.Bill
	Details     aggregate.Details
	Items       []aggregate.MenuItem
	Totals      aggregate.Totals
	GeneratedAt time.Time
}

// PrepareExport resolves req into a snapshot. Detail fetches fail fast: an
// export never silently contains bills with missing details.
func (d *Dashboard) PrepareExport(ctx context.Context, req ExportRequest) (ExportData, error) {
	f := req.Filter
	if f.End.IsZero() {
		f.End = billing.DateOf(d.today())
	}
	if f.Start.IsZero() {
		f.Start = f.End.AddDays(-DefaultExportDays)
	}

	bills := d.FilterBills(f)
	if len(bills) == 0 {
		d.fail("Export", ErrNothingToExport)
		return ExportData{}, ErrNothingToExport
	}

	if err := d.loader.LoadWithPolicy(ctx, bills, loader.PolicyFailFast); err != nil {
		d.fail("Failed to prepare export data", err)
		return ExportData{}, err
	}

	details := make(aggregate.Details, len(bills))
	for _, b := range bills {
		if list, ok := d.cache.Get(b.BillNo); ok {
			details[b.BillNo] = list
		}
	}
	items := aggregate.MenuItems(bills, details)

	return ExportData{
		Start:       f.Start,
		End:         f.End,
		Bills:       bills,
		Details:     details,
		Items:       items,
		Totals:      aggregate.SumItems(items),
		GeneratedAt: d.now(),
	}, nil
}
