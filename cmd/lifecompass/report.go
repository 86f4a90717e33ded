package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"

	"github.com/google/subcommands"
)

// reportCmd prints a markdown report for a records file.
type reportCmd struct {
	in     io.Reader
	out    io.Writer
	file   string
	mode   string
	render bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print totals, percentiles and ratings for a records file" }
func (*reportCmd) Usage() string {
	return `lifecompass report [-f records.json] [-mode strict|lenient] [-render]

  Reads a FinancialRecordSet as JSON (stdin by default) and prints a markdown
  report. Amounts are taken as USD; no exchange rates are fetched.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "records file, - for stdin")
	f.StringVar(&c.mode, "mode", "strict", "amount parse mode: strict or lenient")
	f.BoolVar(&c.render, "render", false, "render the markdown for the terminal")
}

func (c *reportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	mode, err := finance.ParseModeFromString(c.mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	records, err := c.readRecords()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading records: %v\n", err)
		return subcommands.ExitFailure
	}

	totals, err := finance.NewAggregator(mode).Aggregate(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error aggregating records: %v\n", err)
		return subcommands.ExitFailure
	}

	engine := finance.NewEngine()
	results := []domain.PercentileResult{
		rank(engine, finance.KindIncome, totals.TotalIncome),
		rank(engine, finance.KindExpense, totals.TotalExpenses),
		rank(engine, finance.KindSavings, totals.SavingsRate),
	}

	if err := printMarkdown(c.out, reportMarkdown(records.Currency, totals, results), c.render); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *reportCmd) readRecords() (*domain.FinancialRecordSet, error) {
	r := c.in
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var records domain.FinancialRecordSet
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.file, err)
	}
	return &records, nil
}

func rank(e *finance.Engine, kind finance.TableKind, v float64) domain.PercentileResult {
	p, _ := e.Percentile(kind, v)
	return domain.PercentileResult{Kind: string(kind), Value: v, Percentile: p, Rating: finance.Rate(p)}
}
