package renderer

import "github.com/etnz/brokerage"

// RenderSummary renders the equity of an account against both profit and
// loss baselines.
func RenderSummary(v *brokerage.Valuation) string {
	partials := map[string]string{
		"title": "title.md",
	}
	return renderTemplate("summary", "summary.md", partials, v)
}
