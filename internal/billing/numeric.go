package billing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount decoded leniently from the upstream API.
// Numbers, numeric strings, null, empty strings and garbage are all accepted;
// anything that does not parse becomes zero.
type Money struct {
	decimal.Decimal
}

// NewMoney returns a Money from a decimal string, zero when it does not parse.
func NewMoney(s string) Money {
	return Money{parseDecimal(s)}
}

// MoneyFromDecimal wraps d.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

func (m *Money) UnmarshalJSON(data []byte) error {
	m.Decimal = parseDecimal(rawScalar(data))
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.StringFixed(2)), nil
}

// Quantity is a non-negative integer decoded leniently: absent, invalid or
// negative values become zero and fractional values are truncated.
type Quantity int64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(parseQuantity(rawScalar(data)))
	return nil
}

// Text is a string field the upstream API sometimes sends as a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(rawScalar(data))
	return nil
}

func (t Text) String() string {
	return string(t)
}

// rawScalar returns the JSON scalar in data as plain text: strings are
// unquoted, null becomes "".
func rawScalar(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return string(data)
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseQuantity(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}

// FormatCurrency renders an amount the way the dashboard shows it, e.g. "Nu. 12.50".
func FormatCurrency(d decimal.Decimal) string {
	return "Nu. " + d.StringFixed(2)
}
