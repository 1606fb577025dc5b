// Package aggregate folds bills and their cached details into the menu-item
// summary and the chart series shown on the dashboard. It performs no I/O:
// bills without cached details contribute nothing.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
)

// DetailLookup resolves a bill number to its fetched details. The bool is
// false when the bill was never fetched. Satisfied by *cache.DetailCache.
type DetailLookup interface {
	Get(billNo string) ([]billing.BillDetail, bool)
}

// Details is an in-memory DetailLookup, used for export snapshots and tests.
type Details map[string][]billing.BillDetail

// Get implements DetailLookup.
func (d Details) Get(billNo string) ([]billing.BillDetail, bool) {
	details, ok := d[billNo]
	return details, ok
}

// MenuItem is the rollup of one menu item across a set of bills.
type MenuItem struct {
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	LastSoldDate  billing.Date    `json:"last_sold_date"`
}

// Totals is the footer row of the menu-item table.
type Totals struct {
	Items    int             `json:"items"`
	Quantity int64           `json:"total_quantity"`
	Revenue  decimal.Decimal `json:"total_revenue"`
}

// Accumulator owns a running menu-item map across calls to Add. It remembers
// which bills it has folded, so adding an overlapping bill set (the recent
// window, then every bill) never counts a bill twice.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	items map[string]*MenuItem
	first map[string]position
	seen  map[string]bool

	rank     map[string]int
	unranked int
}

// position is where an item was first sold: the bill's rank, then the
// detail's index within the bill.
type position struct {
	bill, detail int
}

func (p position) compare(o position) int {
	if c := cmp.Compare(p.bill, o.bill); c != 0 {
		return c
	}
	return cmp.Compare(p.detail, o.detail)
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		items: make(map[string]*MenuItem),
		first: make(map[string]position),
		seen:  make(map[string]bool),
	}
}

// RankBy fixes the order ties are broken in to the order of bills, however
// the bills are later split across calls to Add. Without it ties follow the
// order bills were folded. Call it before the first Add.
func (a *Accumulator) RankBy(bills []billing.Bill) {
	a.rank = make(map[string]int, len(bills))
	for i, b := range bills {
		if _, ok := a.rank[b.BillNo]; !ok {
			a.rank[b.BillNo] = i
		}
	}
}

func (a *Accumulator) rankOf(billNo string) int {
	if r, ok := a.rank[billNo]; ok {
		return r
	}
	r := len(a.rank) + a.unranked
	a.unranked++
	return r
}

// Add folds every bill not folded before whose details are present in
// lookup. Bills absent from lookup are left unseen so a later Add, after
// their details arrive, still counts them. Returns the number of bills
// folded by this call.
func (a *Accumulator) Add(bills []billing.Bill, lookup DetailLookup) int {
	folded := 0
	for _, bill := range bills {
		if bill.BillNo == "" || a.seen[bill.BillNo] {
			continue
		}
		details, ok := lookup.Get(bill.BillNo)
		if !ok {
			continue
		}
		a.seen[bill.BillNo] = true
		folded++
		rank := a.rankOf(bill.BillNo)

		for i, d := range details {
			name := d.Name()
			if name == "" {
				continue
			}
			pos := position{bill: rank, detail: i}
			item, ok := a.items[name]
			if !ok {
				item = &MenuItem{Name: name}
				a.items[name] = item
				a.first[name] = pos
			} else if pos.compare(a.first[name]) < 0 {
				a.first[name] = pos
			}
			item.TotalQuantity += int64(d.Quantity)
			item.TotalRevenue = item.TotalRevenue.Add(d.Amount.Decimal)
			if bill.Date.After(item.LastSoldDate) {
				item.LastSoldDate = bill.Date
			}
		}
	}
	return folded
}

// Folded reports how many distinct bills have been folded.
func (a *Accumulator) Folded() int {
	return len(a.seen)
}

// Snapshot returns the current aggregate, sorted by quantity sold descending.
// Items with equal quantity are ordered by where they were first sold. The
// Accumulator is not modified.
func (a *Accumulator) Snapshot() []MenuItem {
	out := make([]MenuItem, 0, len(a.items))
	for _, item := range a.items {
		it := *item
		it.AveragePrice = averagePrice(it.TotalRevenue, it.TotalQuantity)
		out = append(out, it)
	}
	slices.SortFunc(out, func(x, y MenuItem) int {
		if c := cmp.Compare(y.TotalQuantity, x.TotalQuantity); c != 0 {
			return c
		}
		return a.first[x.Name].compare(a.first[y.Name])
	})
	return out
}

// MenuItems aggregates bills in a single pass.
func MenuItems(bills []billing.Bill, lookup DetailLookup) []MenuItem {
	acc := NewAccumulator()
	acc.Add(bills, lookup)
	return acc.Snapshot()
}

// SumItems returns the footer totals for items.
func SumItems(items []MenuItem) Totals {
	t := Totals{Items: len(items), Revenue: decimal.Zero}
	for _, item := range items {
		t.Quantity += item.TotalQuantity
		t.Revenue = t.Revenue.Add(item.TotalRevenue)
	}
	return t
}

func averagePrice(revenue decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(quantity)).Round(2)
}
