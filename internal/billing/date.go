package billing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the upstream wire format for bill dates (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// ISODateLayout is used for query parameters and file names.
const ISODateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, ISODateLayout, time.RFC3339}

// Date is a calendar day. It is decoded from the DD-MM-YYYY wire format (ISO
// dates are tolerated) and always compared as a calendar value, never as the
// raw string.
type Date struct {
	time.Time
}

// NewDate returns the calendar day y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses s in any of the accepted layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// String returns the wire format, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ISO returns YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODateLayout)
}

// Display returns the human form used in tables and exports, e.g. "Jan 2, 2024".
func (d Date) Display() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("Jan 2, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: an unparseable date decodes as the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDate(rawScalar(data))
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}
