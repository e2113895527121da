package models

import (
	"github.com/shopspring/decimal"
)

// Amount is a monetary value in rupees. It encodes as a bare JSON number and
// scans from NUMERIC columns through the embedded decimal.
type Amount struct {
	decimal.Decimal
}

func ZeroAmount() Amount {
	return Amount{Decimal: decimal.Zero}
}

// ParseAmount parses a decimal string such as "-1250.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(other Amount) bool {
	return a.Decimal.Equal(other.Decimal)
}
