package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/charmbracelet/glamour"
)

// printMarkdown writes md to w, rendered for the terminal when render is set.
func printMarkdown(w io.Writer, md string, render bool) error {
	if !render {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func reportMarkdown(symbol string, t domain.Totals, results []domain.PercentileResult) string {
	if symbol == "" {
		symbol = "$"
	}
	money := func(v float64) string { return service.FormatAmount(v, symbol) }

	var b strings.Builder
	b.WriteString("# Financial report\n\n")

	b.WriteString("| Total | Amount |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Monthly income | %s |\n", money(t.TotalIncome))
	fmt.Fprintf(&b, "| Monthly expenses | %s |\n", money(t.TotalExpenses))
	fmt.Fprintf(&b, "| Net cash flow | %s |\n", money(t.NetCashFlow))
	fmt.Fprintf(&b, "| Savings | %s |\n", money(t.TotalSavings))
	fmt.Fprintf(&b, "| Debt | %s |\n", money(t.TotalDebt))
	fmt.Fprintf(&b, "| Net worth | %s |\n", money(t.NetWorth))
	fmt.Fprintf(&b, "| One-off expenses | %s |\n", money(t.OneOffExpenses))
	fmt.Fprintf(&b, "| Savings rate | %s |\n", number(t.SavingsRate, "%"))

	b.WriteString("\n## Percentiles\n\n")
	b.WriteString("| Dimension | Percentile | Rating |\n|---|---:|---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Kind, number(r.Percentile, ""), r.Label)
	}

	if len(t.ExpensesByCategory) > 0 {
		cats := make([]string, 0, len(t.ExpensesByCategory))
		for c := range t.ExpensesByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		b.WriteString("\n## Recurring expenses by category\n\n")
		b.WriteString("| Category | Amount |\n|---|---:|\n")
		for _, c := range cats {
			fmt.Fprintf(&b, "| %s | %s |\n", c, money(t.ExpensesByCategory[c]))
		}
	}
	return b.String()
}

func tableMarkdown(t *finance.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s percentiles (%s, %d breakpoints)\n\n", t.Kind, t.Ordering, t.Len())
	if t.FloorPercentile != nil {
		fmt.Fprintf(&b, "Values at or below zero rank at the %sth percentile.\n\n", number(*t.FloorPercentile, ""))
	}
	b.WriteString("| Breakpoint | Percentile |\n|---:|---:|\n")
	for _, e := range t.Entries {
		fmt.Fprintf(&b, "| %s | %s |\n", number(e.Breakpoint, ""), number(e.Percentile, ""))
	}
	return b.String()
}

func number(v float64, suffix string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%s", v, suffix)
}
