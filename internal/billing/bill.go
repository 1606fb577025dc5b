// Package billing defines the bill and bill-detail records exchanged with the
// upstream billing API. Upstream payloads are loosely typed; all coercion
// happens here, once, when a record is decoded.
package billing

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Bill is one billing transaction. Details are fetched separately.
type Bill struct {
	BillNo        string   `json:"fnb_bill_no"`
	Date          Date     `json:"date"`
	Time          string   `json:"time"`
	TableNo       Text     `json:"table_no"`
	Pax           Quantity `json:"pax"`
	TotalAmount   Money    `json:"total_amount"`
	PaymentStatus string   `json:"payment_status"`

	CustomerName string `json:"primary_customer_name,omitempty"`
	PhoneNo      Text   `json:"phone_no,omitempty"`
	Outlet       string `json:"outlet,omitempty"`
	OrderType    string `json:"order_type,omitempty"`
}

// UnmarshalJSON accepts a numeric fnb_bill_no as well as a string one.
func (b *Bill) UnmarshalJSON(data []byte) error {
	type alias Bill
	aux := struct {
		*alias
		BillNo Text `json:"fnb_bill_no"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.BillNo = aux.BillNo.String()
	return nil
}

// Status returns the payment status normalized for comparison.
func (b Bill) Status() string {
	return NormalizeStatus(b.PaymentStatus)
}

// Total returns the bill total as a decimal.
func (b Bill) Total() decimal.Decimal {
	return b.TotalAmount.Decimal
}

// NormalizeStatus lowercases and trims a payment status.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BillDetail is one line item of a bill. MenuName is nil when upstream sent
// null; such records never contribute to menu-item aggregates.
type BillDetail struct {
	ID       string   `json:"id,omitempty"`
	BillNo   string   `json:"fnb_bill_no,omitempty"`
	MenuName *string  `json:"menu_name"`
	Rate     Money    `json:"rate"`
	Quantity Quantity `json:"quanity"`
	Amount   Money    `json:"amount"`
}

// UnmarshalJSON applies the detail coercion rules: ids may be numeric,
// negative rate or amount becomes zero.
func (d *BillDetail) UnmarshalJSON(data []byte) error {
	type alias BillDetail
	aux := struct {
		*alias
		ID     Text `json:"id"`
		BillNo Text `json:"fnb_bill_no"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.ID = aux.ID.String()
	d.BillNo = aux.BillNo.String()
	if d.Rate.IsNegative() {
		d.Rate = Money{}
	}
	if d.Amount.IsNegative() {
		d.Amount = Money{}
	}
	return nil
}

// Name returns the trimmed menu item name, "" when absent.
func (d BillDetail) Name() string {
	if d.MenuName == nil {
		return ""
	}
	return strings.TrimSpace(*d.MenuName)
}

// StringPtr is a convenience for building details with a menu name.
func StringPtr(s string) *string {
	return &s
}

// SortNewestFirst orders bills by date then time, newest first. Bills with
// equal timestamps keep their relative order.
func SortNewestFirst(bills []Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		a, b := bills[i], bills[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		return clockSeconds(a.Time) > clockSeconds(b.Time)
	})
}

// clockSeconds converts "HH:MM" or "HH:MM:SS" to seconds since midnight, -1
// when it does not parse.
func clockSeconds(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return -1
	}
	total := 0
	for i, unit := range []int{3600, 60, 1} {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return -1
		}
		total += n * unit
	}
	return total
}

// WithLineTotal fills Amount from Rate × Quantity when Amount is zero.
func (d BillDetail) WithLineTotal() BillDetail {
	if d.Amount.IsZero() {
		d.Amount = Money{d.Rate.Mul(decimal.NewFromInt(int64(d.Quantity)))}
	}
	return d
}
