package renderer

import "github.com/etnz/brokerage"

// RenderHolding renders the cash and the valued positions of an account.
func RenderHolding(v *brokerage.Valuation) string {
	partials := map[string]string{
		"title":     "title.md",
		"positions": "positions.md",
	}
	return renderTemplate("holding", "holding.md", partials, v)
}
