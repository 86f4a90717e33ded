package finance

import (
	"fmt"
	"math"
	"strings"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
)

// Ordering is the stored breakpoint order of a reference table.
type Ordering int

const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// TableKind names one of the reference populations.
type TableKind string

const (
	KindIncome  TableKind = "income"
	KindExpense TableKind = "expense"
	KindSavings TableKind = "savings"
)

// ParseTableKind accepts the kind names used in URLs and CLI flags.
func ParseTableKind(s string) (TableKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	case "savings", "savings-rate", "savings_rate":
		return KindSavings, nil
	}
	return "", &domain.ErrValidation{Field: "kind", Message: "must be income, expense or savings"}
}

// Table is an immutable breakpoint → percentile lookup table.
//
// Entries are sorted by breakpoint in the direction given by Ordering.
// When FloorPercentile is set, any value <= 0 maps to it directly.
type Table struct {
	Kind            TableKind
	Ordering        Ordering
	Entries         []domain.PercentileBreakpoint
	FloorPercentile *float64
}

// Len returns the number of breakpoints.
func (t *Table) Len() int { return len(t.Entries) }

// extremes returns the entries holding the smallest and largest breakpoints.
func (t *Table) extremes() (smallest, largest domain.PercentileBreakpoint) {
	first, last := t.Entries[0], t.Entries[len(t.Entries)-1]
	if t.Ordering == Descending {
		return last, first
	}
	return first, last
}

// precedes reports whether a breakpoint sorts before v in this table's order.
func (t *Table) precedes(breakpoint, v float64) bool {
	if t.Ordering == Descending {
		return breakpoint > v
	}
	return breakpoint < v
}

// Percentile maps v to an interpolated percentile. Results are not rounded.
// NaN in, NaN out.
func (t *Table) Percentile(v float64) float64 {
	n := len(t.Entries)
	if n == 0 || math.IsNaN(v) {
		return math.NaN()
	}
	if t.FloorPercentile != nil && v <= 0 {
		return *t.FloorPercentile
	}

	smallest, largest := t.extremes()
	if v <= smallest.Breakpoint {
		return smallest.Percentile
	}
	if v >= largest.Breakpoint {
		return largest.Percentile
	}

	low, high := 0, n-1
	for low <= high {
		mid := (low + high) / 2
		e := t.Entries[mid]
		if e.Breakpoint == v {
			return e.Percentile
		}
		if t.precedes(e.Breakpoint, v) {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	lower := max(0, high)
	upper := min(n-1, low)
	if lower == upper {
		return t.Entries[lower].Percentile
	}

	a, b := t.Entries[lower], t.Entries[upper]
	ratio := (v - a.Breakpoint) / (b.Breakpoint - a.Breakpoint)
	return a.Percentile + ratio*(b.Percentile-a.Percentile)
}

// Validate checks that the table is non-empty and strictly sorted in its
// declared order. Entry and floor percentiles must lie in [0, 100].
func (t *Table) Validate() error {
	if len(t.Entries) == 0 {
		return fmt.Errorf("table %s: no entries", t.Kind)
	}
	if f := t.FloorPercentile; f != nil && !validPercentile(*f) {
		return fmt.Errorf("table %s: floor percentile %v out of range", t.Kind, *f)
	}
	for i, e := range t.Entries {
		if math.IsNaN(e.Breakpoint) || math.IsInf(e.Breakpoint, 0) {
			return fmt.Errorf("table %s: entry %d has a non-finite breakpoint", t.Kind, i)
		}
		if !validPercentile(e.Percentile) {
			return fmt.Errorf("table %s: entry %d percentile %v out of range", t.Kind, i, e.Percentile)
		}
		if i > 0 && !t.precedes(t.Entries[i-1].Breakpoint, e.Breakpoint) {
			return fmt.Errorf("table %s: entry %d breaks %s order", t.Kind, i, t.Ordering)
		}
	}
	return nil
}

func validPercentile(p float64) bool {
	return p >= 0 && p <= 100
}

func (t *Table) clone() *Table {
	c := *t
	c.Entries = append([]domain.PercentileBreakpoint(nil), t.Entries...)
	if t.FloorPercentile != nil {
		f := *t.FloorPercentile
		c.FloorPercentile = &f
	}
	return &c
}

// Engine answers percentile queries against the three reference tables.
// It is safe for concurrent use: tables are never mutated after construction.
type Engine struct {
	tables map[TableKind]*Table
}

// NewEngine returns an engine backed by the built-in reference tables.
func NewEngine() *Engine {
	return &Engine{tables: map[TableKind]*Table{
		KindIncome:  incomeTable,
		KindExpense: expenseTable,
		KindSavings: savingsTable,
	}}
}

// NewEngineWithTables builds an engine from caller-supplied tables.
// Each table is validated and copied.
func NewEngineWithTables(tables ...*Table) (*Engine, error) {
	e := &Engine{tables: make(map[TableKind]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("nil table")
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		e.tables[t.Kind] = t.clone()
	}
	for _, k := range []TableKind{KindIncome, KindExpense, KindSavings} {
		if _, ok := e.tables[k]; !ok {
			return nil, fmt.Errorf("missing %s table", k)
		}
	}
	return e, nil
}

// Percentile looks up v in the table for kind.
func (e *Engine) Percentile(kind TableKind, v float64) (float64, error) {
	t, ok := e.tables[kind]
	if !ok {
		return 0, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown table %q", kind)}
	}
	return t.Percentile(v), nil
}

// IncomePercentile ranks a monthly USD income.
func (e *Engine) IncomePercentile(monthlyIncome float64) float64 {
	return e.tables[KindIncome].Percentile(monthlyIncome)
}

// ExpensePercentile ranks monthly USD expenses; lower spending ranks higher.
func (e *Engine) ExpensePercentile(monthlyExpenses float64) float64 {
	return e.tables[KindExpense].Percentile(monthlyExpenses)
}

// SavingsPercentile ranks a savings rate in percent. Negative rates are valid.
func (e *Engine) SavingsPercentile(savingsRatePercent float64) float64 {
	return e.tables[KindSavings].Percentile(savingsRatePercent)
}

// Table returns a copy of the table for kind.
func (e *Engine) Table(kind TableKind) (*Table, bool) {
	t, ok := e.tables[kind]
	if !ok {
		return nil, false
	}
	return t.clone(), true
}

var defaultEngine = NewEngine()

// IncomePercentile ranks a monthly USD income against the built-in table.
func IncomePercentile(monthlyIncome float64) float64 {
	return defaultEngine.IncomePercentile(monthlyIncome)
}

// ExpensePercentile ranks monthly USD expenses against the built-in table.
func ExpensePercentile(monthlyExpenses float64) float64 {
	return defaultEngine.ExpensePercentile(monthlyExpenses)
}

// SavingsPercentile ranks a savings rate against the built-in table.
func SavingsPercentile(savingsRatePercent float64) float64 {
	return defaultEngine.SavingsPercentile(savingsRatePercent)
}
