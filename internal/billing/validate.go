package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/legphel-eats/fnb-dashboard/internal/enum"
)

// ValidationError lists the offending fields of a rejected record.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := e.fieldNames()
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the field messages ordered by field name.
func (e *ValidationError) Messages() []string {
	keys := e.fieldNames()
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return msgs
}

func (e *ValidationError) fieldNames() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidStatus reports whether s is a known payment status, ignoring case.
func IsValidStatus(s string) bool {
	switch NormalizeStatus(s) {
	case enum.PaymentStatusPaid, enum.PaymentStatusPending, enum.PaymentStatusCancelled:
		return true
	}
	return false
}

// ValidateBill checks the fields an operator must supply for a bill.
func ValidateBill(b Bill) error {
	errs := map[string]string{}

	if strings.TrimSpace(b.BillNo) == "" {
		errs["fnb_bill_no"] = "Bill number is required"
	}
	if b.Date.IsZero() {
		errs["date"] = "Date is required"
	}
	if clockSeconds(b.Time) < 0 {
		errs["time"] = "Time is required"
	}
	if strings.TrimSpace(b.TableNo.String()) == "" {
		errs["table_no"] = "Table number is required"
	}
	if b.Pax < 1 {
		errs["pax"] = "Number of guests must be at least 1"
	}
	if b.TotalAmount.IsNegative() {
		errs["total_amount"] = "Total amount must be a positive number"
	}
	switch {
	case strings.TrimSpace(b.PaymentStatus) == "":
		errs["payment_status"] = "Payment status is required"
	case !IsValidStatus(b.PaymentStatus):
		errs["payment_status"] = "Payment status must be paid, pending or cancelled"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateDetail checks a line item before it is sent upstream.
func ValidateDetail(d BillDetail) error {
	errs := map[string]string{}
	if d.Name() == "" {
		errs["menu_name"] = "Menu item is required"
	}
	if d.Quantity < 1 {
		errs["quanity"] = "Quantity must be at least 1"
	}
	if d.Rate.IsNegative() {
		errs["rate"] = "Rate must not be negative"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
