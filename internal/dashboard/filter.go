package dashboard

import (
	"strings"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
)

// Filter narrows the bill list. Zero fields match everything.
type Filter struct {
	// Query is matched case-insensitively against bill and table numbers.
	Query string
	// Status is a payment status; compared after normalization.
	Status string
	// Start and End bound the bill date, inclusive.
	Start billing.Date
	End   billing.Date
}

// Match reports whether b passes every set criterion.
func (f Filter) Match(b billing.Bill) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(b.BillNo), q) &&
			!strings.Contains(strings.ToLower(b.TableNo.String()), q) {
			return false
		}
	}
	if s := billing.NormalizeStatus(f.Status); s != "" && s != b.Status() {
		return false
	}
	if !f.Start.IsZero() && (b.Date.IsZero() || b.Date.Before(f.Start)) {
		return false
	}
	if !f.End.IsZero() && (b.Date.IsZero() || b.Date.After(f.End)) {
		return false
	}
	return true
}

// Apply returns the bills matching f, in input order.
func (f Filter) Apply(bills []billing.Bill) []billing.Bill {
	out := make([]billing.Bill, 0, len(bills))
	for _, b := range bills {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}
