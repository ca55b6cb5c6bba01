package payroll

import "github.com/shopspring/decimal"

// Amount is a decimal that always serializes with two fractional digits,
// so 1400 is rendered as "1400.00".
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(2) + `"`), nil
}
