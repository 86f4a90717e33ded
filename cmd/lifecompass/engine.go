package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lifecompass/finance-bfa-go/internal/finance"

	"github.com/google/subcommands"
)

// percentileCmd ranks one value against a reference table.
type percentileCmd struct {
	out  io.Writer
	kind string
}

func (*percentileCmd) Name() string     { return "percentile" }
func (*percentileCmd) Synopsis() string { return "rank a value against a reference table" }
func (*percentileCmd) Usage() string {
	return `lifecompass percentile -kind income|expense|savings <value>

  Prints the percentile, rating and color for <value>. Income and expense
  values are monthly USD amounts; savings values are a savings rate in percent.
`
}

func (c *percentileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "income", "reference table: income, expense or savings")
}

func (c *percentileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	kind, err := finance.ParseTableKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	v, err := strconv.ParseFloat(f.Arg(0), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing value %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}

	p, err := finance.NewEngine().Percentile(kind, v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	r := finance.Rate(p)
	fmt.Fprintf(c.out, "%s %s: percentile %.2f, %s (%s)\n", kind, f.Arg(0), p, r.Label, r.Color)
	return subcommands.ExitSuccess
}

// ratingCmd maps a percentile to its label and color.
type ratingCmd struct {
	out io.Writer
}

func (*ratingCmd) Name() string     { return "rating" }
func (*ratingCmd) Synopsis() string { return "print the rating label and color for a percentile" }
func (*ratingCmd) Usage() string {
	return `lifecompass rating <percentile>
`
}

func (*ratingCmd) SetFlags(*flag.FlagSet) {}

func (c *ratingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	p, err := strconv.ParseFloat(f.Arg(0), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing percentile %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	r := finance.Rate(p)
	fmt.Fprintf(c.out, "%s %s\n", r.Label, r.Color)
	return subcommands.ExitSuccess
}

// tableCmd dumps a reference table as markdown.
type tableCmd struct {
	out    io.Writer
	kind   string
	render bool
}

func (*tableCmd) Name() string     { return "table" }
func (*tableCmd) Synopsis() string { return "dump a reference table" }
func (*tableCmd) Usage() string {
	return `lifecompass table -kind income|expense|savings [-render]
`
}

func (c *tableCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "income", "reference table: income, expense or savings")
	f.BoolVar(&c.render, "render", false, "render the markdown for the terminal")
}

func (c *tableCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := finance.ParseTableKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t, ok := finance.NewEngine().Table(kind)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no %s table\n", kind)
		return subcommands.ExitFailure
	}
	if err := printMarkdown(c.out, tableMarkdown(t), c.render); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering table: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
