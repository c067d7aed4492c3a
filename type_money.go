package brokerage

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of fraction digits of every Money value.
const moneyPlaces = 2

// Bounds of the decimal text accepted by ParseMoney. Rounding a value with a
// huge exponent costs time and memory proportional to the exponent.
const (
	maxExponent = 18
	maxDigits   = 30
)

// Money represents an exact monetary amount with exactly two fraction digits.
//
// Every constructor and every arithmetic operation rounds half away from zero
// to two places, so that a Money value never carries more precision than the
// ledger persists. The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// quantize rounds d half-up to the Money precision.
func quantize(d decimal.Decimal) Money {
	return Money{value: d.Round(moneyPlaces)}
}

// NewMoney returns d quantized to two fraction digits.
func NewMoney(d decimal.Decimal) Money { return quantize(d) }

// Cents returns the Money worth n hundredths.
func Cents(n int64) Money { return Money{value: decimal.New(n, -moneyPlaces)} }

// ParseMoney parses an exact decimal representation like "12.30" or "-4".
// Extra fraction digits are rounded half-up. Text with more than 30
// significant digits or an exponent beyond ±18 is out of range.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, invalidf("empty monetary value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, invalidf("%q is not an exact decimal value", s)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent || d.NumDigits() > maxDigits {
		return Money{}, invalidf("%q is out of range", s)
	}
	return quantize(d), nil
}

// MustParseMoney is like ParseMoney but panics on error. It is meant for
// constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ToMoney converts value into Money.
//
// Money, decimal.Decimal, integers, strings and json.Number are accepted.
// Binary floating point values are rejected with ErrInvalidTransaction: they
// cannot be trusted to carry the exact amount the caller meant.
func ToMoney(value any) (Money, error) {
	switch v := value.(type) {
	case Money:
		return quantize(v.value), nil
	case decimal.Decimal:
		return quantize(v), nil
	case string:
		return ParseMoney(v)
	case json.Number:
		return ParseMoney(v.String())
	case int:
		return quantize(decimal.NewFromInt(int64(v))), nil
	case int32:
		return quantize(decimal.NewFromInt32(v)), nil
	case int64:
		return quantize(decimal.NewFromInt(v)), nil
	case uint:
		return quantize(decimal.NewFromUint64(uint64(v))), nil
	case uint32:
		return quantize(decimal.NewFromUint64(uint64(v))), nil
	case uint64:
		return quantize(decimal.NewFromUint64(v)), nil
	case float32, float64:
		return Money{}, invalidf("%v is a binary floating point value, not an exact decimal", v)
	case nil:
		return Money{}, invalidf("missing monetary value")
	default:
		return Money{}, invalidf("%T is not a monetary value", v)
	}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.value }

// String returns the amount with exactly two fraction digits, e.g. "70.00".
func (m Money) String() string { return m.value.StringFixed(moneyPlaces) }

// maxMinorUnits is the largest amount go-money can display, in minor units.
var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Format returns the amount formatted for display in currency, e.g. "$1,234.50".
// Amounts are rounded to the minor unit of currency. Unknown currencies are
// shown as a plain amount followed by the code.
func (m Money) Format(currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return m.String() + " " + currency
	}
	minor := m.value.Shift(int32(cur.Fraction)).Round(0)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return m.String() + " " + currency
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }

// binary operators, always quantized.
func (m Money) Add(n Money) Money        { return quantize(m.value.Add(n.value)) }
func (m Money) Sub(n Money) Money        { return quantize(m.value.Sub(n.value)) }
func (m Money) Mul(quantity int64) Money { return quantize(m.value.Mul(decimal.NewFromInt(quantity))) }

// MarshalJSON encodes the amount as a quoted exact decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a quoted decimal string or a JSON number literal. The
// literal is parsed as text, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("cannot decode monetary value %s: %w", data, err)
		}
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ValidateCurrency checks that code is a known ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if code == "" {
		return invalidf("currency code is missing")
	}
	if money.GetCurrency(code) == nil {
		return invalidf("unknown currency code %q", code)
	}
	return nil
}
