package brokerage

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// PriceLookup resolves the current unit price of a security.
//
// Implementations must fail with an error wrapping ErrInvalidTransaction when
// the symbol is empty or unsupported. Other errors are converted into
// ErrInvalidTransaction by the Account.
type PriceLookup interface {
	PriceOf(symbol string) (Money, error)
}

// PriceFunc adapts an ordinary function into a PriceLookup.
type PriceFunc func(symbol string) (Money, error)

// PriceOf calls f(symbol).
func (f PriceFunc) PriceOf(symbol string) (Money, error) { return f(symbol) }

// StaticPrices is a PriceLookup backed by a fixed table indexed by normalized symbol.
type StaticPrices map[string]Money

// PriceOf returns the price of the normalized symbol.
func (p StaticPrices) PriceOf(symbol string) (Money, error) {
	s := normalizeSymbol(symbol)
	if s == "" {
		return Money{}, invalidf("symbol is missing")
	}
	price, ok := p[s]
	if !ok {
		return Money{}, invalidf("price for symbol %q is not available", symbol)
	}
	return price, nil
}

// Symbols returns the symbols of the table in alphabetical order.
func (p StaticPrices) Symbols() []string {
	return slices.Sorted(maps.Keys(p))
}

// DefaultPrices is the price table used when neither the account nor the
// operation provides a PriceLookup.
var DefaultPrices = StaticPrices{
	"AAPL":  MustParseMoney("150.00"),
	"TSLA":  MustParseMoney("700.00"),
	"GOOGL": MustParseMoney("2700.00"),
}

// resolvePrice asks prices for the price of symbol and checks the answer is
// a usable unit price.
func resolvePrice(prices PriceLookup, symbol string) (Money, error) {
	price, err := prices.PriceOf(symbol)
	if err != nil {
		if errors.Is(err, ErrInvalidTransaction) {
			return Money{}, err
		}
		return Money{}, fmt.Errorf("%w: price lookup for %q failed: %w", ErrInvalidTransaction, symbol, err)
	}
	price = quantize(price.value)
	if !price.IsPositive() {
		return Money{}, invalidf("price lookup for %q returned a non positive price %s", symbol, price)
	}
	return price, nil
}
