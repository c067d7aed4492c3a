package brokerage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHoldings(t *testing.T) {
	var empty Holdings
	if c := empty.Clone(); c == nil || len(c) != 0 {
		t.Errorf("Clone() of nil = %#v, want an empty map", c)
	}
	if !empty.Equal(Holdings{}) {
		t.Errorf("nil holdings differ from empty holdings")
	}

	h := Holdings{"TSLA": 1, "AAPL": 3, "GOOGL": 2}
	if diff := cmp.Diff([]string{"AAPL", "GOOGL", "TSLA"}, h.Symbols()); diff != "" {
		t.Errorf("Symbols() mismatch (-want +got):\n%s", diff)
	}
	c := h.Clone()
	c["AAPL"] = 4
	if h["AAPL"] != 3 {
		t.Errorf("Clone() shares storage with the original")
	}
	if h.Equal(c) {
		t.Errorf("Equal() = true for different quantities")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	for in, want := range map[string]string{" aapl ": "AAPL", "Tsla": "TSLA", "  ": ""} {
		if got := normalizeSymbol(in); got != want {
			t.Errorf("normalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
