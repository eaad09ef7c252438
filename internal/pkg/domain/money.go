package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable monetary amount kept at two decimal places with
// banker's rounding.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{amount: decimal.Zero}

func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.RoundBank(2)}
}

// MoneyFromString parses a decimal string such as "200.00".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("domain: parse money %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// MustMoney is MoneyFromString for literals known to be valid.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) IsGreaterThanZero() bool { return m.amount.IsPositive() }

func (m Money) IsGreaterThan(other Money) bool { return m.amount.GreaterThan(other.amount) }

func (m Money) Add(other Money) Money { return NewMoney(m.amount.Add(other.amount)) }

func (m Money) Subtract(other Money) Money { return NewMoney(m.amount.Sub(other.amount)) }

func (m Money) Multiply(quantity int) Money {
	return NewMoney(m.amount.Mul(decimal.NewFromInt(int64(quantity))))
}

// Equal compares by value, so 50 and 50.00 are the same amount.
func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

func (m Money) String() string { return m.amount.StringFixed(2) }

// MarshalText renders the amount with two decimals, so JSON carries "200.00".
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	parsed, err := MoneyFromString(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
