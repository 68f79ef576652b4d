package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
)

//go:embed templates/*.md
var templates embed.FS

// funcs are the helpers available to every template.
var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// ReportRenderOptions holds configuration for rendering a run report.
type ReportRenderOptions struct {
	SkipTrades bool // Do not list the trades, only count them.
}

// RenderReport renders a run report to a markdown string.
func RenderReport(r *Report, opts ReportRenderOptions) string {
	partials := map[string]string{
		"report_title":     "report_title.md",
		"report_summary":   "report_summary.md",
		"report_positions": "report_positions.md",
		"report_anomalies": "report_anomalies.md",
	}
	if !opts.SkipTrades {
		partials["report_trades"] = "report_trades.md"
	} else {
		partials["report_trades"] = "report_trades_skipped.md"
	}
	return renderTemplate("report", "report.md", partials, r)
}

// RenderSweep renders one summary row per report.
func RenderSweep(reports []*Report) string {
	return renderTemplate("sweep", "sweep.md", nil, reports)
}

// RenderPerformance renders the statistics of a net value series.
func RenderPerformance(name string, sum backtest.Summary) string {
	data := struct {
		Name    string
		Summary backtest.Summary
	}{name, sum}
	return renderTemplate("performance", "performance.md", nil, data)
}

// RenderPeriodicReturns renders the returns of a series per calendar period.
func RenderPeriodicReturns(p date.Period, returns []backtest.PeriodReturn) string {
	data := struct {
		Period  date.Period
		Returns []backtest.PeriodReturn
	}{p, returns}
	return renderTemplate("periodic_returns", "periodic_returns.md", nil, data)
}

// RenderTradingDays renders trading and suspended day counts.
func RenderTradingDays(counts []backtest.TradingDayCount) string {
	return renderTemplate("trading_days", "trading_days.md", nil, counts)
}

// RenderCumulativeReturns renders a ranking of stock returns.
func RenderCumulativeReturns(returns []backtest.StockReturn) string {
	return renderTemplate("cumulative_returns", "cumulative_returns.md", nil, returns)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
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
