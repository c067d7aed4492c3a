package brokerage

import (
	"slices"
	"time"
)

// Filter is a predicate selecting transactions of a ledger.
type Filter func(Transaction) bool

// Since accepts transactions that happened at or after start.
func Since(start time.Time) Filter {
	return func(tx Transaction) bool { return !tx.When().Before(start) }
}

// Until accepts transactions that happened at or before end.
func Until(end time.Time) Filter {
	return func(tx Transaction) bool { return !tx.When().After(end) }
}

// OfType accepts transactions whose type is one of types. OfType() accepts nothing.
func OfType(types ...TxType) Filter {
	return func(tx Transaction) bool { return slices.Contains(types, tx.What()) }
}

// BySymbol accepts trades of the given symbol.
func BySymbol(symbol string) Filter {
	symbol = normalizeSymbol(symbol)
	return func(tx Transaction) bool {
		switch v := tx.(type) {
		case Buy:
			return v.symbol == symbol
		case Sell:
			return v.symbol == symbol
		default:
			return false
		}
	}
}

// acceptAll reports whether every filter accepts tx.
func acceptAll(tx Transaction, filters []Filter) bool {
	for _, accept := range filters {
		if !accept(tx) {
			return false
		}
	}
	return true
}
