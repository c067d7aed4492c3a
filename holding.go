package brokerage

import (
	"maps"
	"slices"
	"strings"
)

// Holdings maps a security symbol to the number of shares held.
//
// An Account never stores a zero quantity: a symbol is removed as soon as its
// position is closed.
type Holdings map[string]int64

// Clone returns a copy of h. The copy of an empty Holdings is an empty, non
// nil map.
func (h Holdings) Clone() Holdings {
	c := make(Holdings, len(h))
	maps.Copy(c, h)
	return c
}

// Symbols returns the held symbols in alphabetical order.
func (h Holdings) Symbols() []string {
	return slices.Sorted(maps.Keys(h))
}

// Equal reports whether h and o hold the same quantities. A nil Holdings is
// equal to an empty one.
func (h Holdings) Equal(o Holdings) bool {
	return maps.Equal(h, o)
}

// normalizeSymbol trims and upper-cases a ticker symbol.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
