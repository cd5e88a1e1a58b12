// Package renderer turns valuations and trade histories into markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/papertrade"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

var funcs = template.FuncMap{
	"join":   strings.Join,
	"date":   func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05") },
	"isSell": func(o papertrade.Order) bool { return o.Side == papertrade.Sell },
	"ret": func(h papertrade.Holding) string {
		if p, ok := h.Return(); ok {
			return p.SignedString()
		}
		return "n/a"
	},
}

// Holding is the data of the holding report.
type Holding struct {
	User      string
	Valuation papertrade.Valuation
}

// History is the data of the trades report.
type History struct {
	User   string
	Trades []papertrade.Trade
}

// RenderHolding renders a valuation as a positions table followed by the
// cash and total. Holdings without a price show n/a, never zero.
func RenderHolding(user string, v papertrade.Valuation) string {
	partials := map[string]string{
		"holding_title":     "holding_title.md",
		"holding_positions": "holding_positions.md",
		"holding_cash":      "holding_cash.md",
	}
	return renderTemplate("holding", "holding.md", partials, Holding{User: user, Valuation: v})
}

// RenderTrades renders the trades of a user, oldest first.
func RenderTrades(user string, trades []papertrade.Trade) string {
	return renderTemplate("trades", "trades.md", nil, History{User: user, Trades: trades})
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
