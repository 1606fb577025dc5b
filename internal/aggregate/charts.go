package aggregate

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
)

// DefaultTopItems is the number of items in the top-items chart.
const DefaultTopItems = 5

// Series is one labelled chart dataset.
type Series struct {
	Labels []string          `json:"labels"`
	Values []decimal.Decimal `json:"values"`
}

// PaymentCounts counts bills per payment status.
type PaymentCounts struct {
	Paid      int `json:"paid"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
	Other     int `json:"other"`
}

// Charts bundles every dashboard chart.
type Charts struct {
	DailySales     Series        `json:"daily_sales"`
	Payments       PaymentCounts `json:"payment_status"`
	TopItems       Series        `json:"top_items"`
	MonthlyRevenue Series        `json:"monthly_revenue"`
}

// BuildCharts computes every chart from bills and their aggregated items.
func BuildCharts(bills []billing.Bill, items []MenuItem) Charts {
	return Charts{
		DailySales:     DailySales(bills),
		Payments:       PaymentBreakdown(bills),
		TopItems:       TopItems(items, DefaultTopItems),
		MonthlyRevenue: MonthlyRevenue(bills),
	}
}

// DailySales sums bill totals per calendar day, oldest first. Bills without a
// date are skipped.
func DailySales(bills []billing.Bill) Series {
	return sumBy(bills, func(d billing.Date) (time.Time, string) {
		return d.Time, d.Display()
	})
}

// MonthlyRevenue sums bill totals per calendar month, oldest first, labelled
// like "Jan 2024".
func MonthlyRevenue(bills []billing.Bill) Series {
	return sumBy(bills, func(d billing.Date) (time.Time, string) {
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return month, month.Format("Jan 2006")
	})
}

// sumBy buckets bill totals by key and returns them in chronological order.
func sumBy(bills []billing.Bill, bucket func(billing.Date) (time.Time, string)) Series {
	sums := make(map[time.Time]decimal.Decimal)
	labels := make(map[time.Time]string)
	for _, b := range bills {
		if b.Date.IsZero() {
			continue
		}
		key, label := bucket(b.Date)
		sums[key] = sums[key].Add(b.Total())
		labels[key] = label
	}

	keys := make([]time.Time, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })

	s := Series{Labels: make([]string, len(keys)), Values: make([]decimal.Decimal, len(keys))}
	for i, k := range keys {
		s.Labels[i] = labels[k]
		s.Values[i] = sums[k]
	}
	return s
}

// PaymentBreakdown counts bills by normalized payment status.
func PaymentBreakdown(bills []billing.Bill) PaymentCounts {
	var c PaymentCounts
	for _, b := range bills {
		switch b.Status() {
		case enum.PaymentStatusPaid:
			c.Paid++
		case enum.PaymentStatusPending:
			c.Pending++
		case enum.PaymentStatusCancelled:
			c.Cancelled++
		default:
			c.Other++
		}
	}
	return c
}

// TopItems returns the n best-selling items by quantity. items must already
// be sorted, as Snapshot and MenuItems return them. n <= 0 means
// DefaultTopItems.
func TopItems(items []MenuItem, n int) Series {
	if n <= 0 {
		n = DefaultTopItems
	}
	n = min(n, len(items))
	s := Series{Labels: make([]string, n), Values: make([]decimal.Decimal, n)}
	for i, item := range items[:n] {
		s.Labels[i] = item.Name
		s.Values[i] = decimal.NewFromInt(item.TotalQuantity)
	}
	return s
}

// RecentWindow splits bills into those dated within the trailing window of
// days ending today (relative to now, in now's location) and the rest. Both
// keep input order. Undated bills go to rest.
func RecentWindow(bills []billing.Bill, now time.Time, days int) (recent, rest []billing.Bill) {
	cutoff := billing.DateOf(now).AddDays(-days)
	for _, b := range bills {
		if !b.Date.IsZero() && !b.Date.Before(cutoff) {
			recent = append(recent, b)
		} else {
			rest = append(rest, b)
		}
	}
	return recent, rest
}
