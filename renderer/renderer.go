// Package renderer renders brokerage accounts as markdown documents.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/brokerage"
)

//go:embed templates/*.md
var templatesFS embed.FS

// templates is the flat view of the embedded templates directory.
var templates, _ = fs.Sub(templatesFS, "templates")

// funcs are the helpers available in every template.
var funcs = template.FuncMap{
	"money":    func(currency string, m brokerage.Money) string { return m.Format(currency) },
	"time":     func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	"escape":   escapeCell,
	"holdings": holdingsCell,
	"trade":    tradeOf,
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// escapeCell makes s safe to use in a markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// holdingsCell formats a holdings snapshot as "AAPL: 2, TSLA: 1".
func holdingsCell(h brokerage.Holdings) string {
	if len(h) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(h))
	for _, sym := range h.Symbols() {
		parts = append(parts, fmt.Sprintf("%s: %d", sym, h[sym]))
	}
	return strings.Join(parts, ", ")
}

// Trade is implemented by the transactions on a security.
type Trade interface {
	brokerage.Transaction
	Symbol() string
	Quantity() int64
	PricePerShare() brokerage.Money
}

// tradeOf returns tx as a Trade, or nil for cash transactions.
func tradeOf(tx brokerage.Transaction) Trade {
	if t, ok := tx.(Trade); ok {
		return t
	}
	return nil
}
