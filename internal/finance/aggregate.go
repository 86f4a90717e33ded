package finance

import (
	"fmt"
	"math"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
)

// Aggregator reduces a record set to totals. It holds no state besides its
// parse mode and never mutates the records it is given.
type Aggregator struct {
	mode ParseMode
}

// NewAggregator creates an Aggregator using the given parse mode.
func NewAggregator(mode ParseMode) *Aggregator {
	return &Aggregator{mode: mode}
}

// Mode returns the parse mode in use.
func (a *Aggregator) Mode() ParseMode { return a.mode }

func (a *Aggregator) amount(collection string, i int, v domain.Amount) (float64, error) {
	return ParseAmount(a.mode, fmt.Sprintf("%s[%d].amount", collection, i), v)
}

// TotalIncome sums every income source regardless of type.
func (a *Aggregator) TotalIncome(records *domain.FinancialRecordSet) (float64, error) {
	if records == nil {
		return 0, nil
	}
	total := 0.0
	for i, src := range records.IncomeSources {
		v, err := a.amount(domain.CollectionIncome, i, src.Amount)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// TotalExpenses sums recurring expenses only. One-off expenses never fail
// or poison the monthly total.
func (a *Aggregator) TotalExpenses(records *domain.FinancialRecordSet) (float64, error) {
	b, err := a.expenses(records)
	if err != nil {
		return 0, err
	}
	return b.recurring, nil
}

// TotalSavings sums every savings account regardless of type.
func (a *Aggregator) TotalSavings(records *domain.FinancialRecordSet) (float64, error) {
	if records == nil {
		return 0, nil
	}
	total := 0.0
	for i, s := range records.Savings {
		v, err := a.amount(domain.CollectionSavings, i, s.Amount)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// TotalDebt sums every debt balance.
func (a *Aggregator) TotalDebt(records *domain.FinancialRecordSet) (float64, error) {
	if records == nil {
		return 0, nil
	}
	total := 0.0
	for i, d := range records.Debts {
		v, err := a.amount(domain.CollectionDebts, i, d.Amount)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// SavingsRate is (income - expenses) / income * 100, or 0 when income is 0.
// The result is signed and has no floor.
func SavingsRate(totalIncome, totalExpenses float64) float64 {
	if totalIncome == 0 {
		return 0
	}
	return ((totalIncome - totalExpenses) / totalIncome) * 100
}

// Aggregate computes every total plus the derived savings rate.
func (a *Aggregator) Aggregate(records *domain.FinancialRecordSet) (domain.Totals, error) {
	income, err := a.TotalIncome(records)
	if err != nil {
		return domain.Totals{}, err
	}
	exp, err := a.expenses(records)
	if err != nil {
		return domain.Totals{}, err
	}
	expenses := exp.recurring
	savings, err := a.TotalSavings(records)
	if err != nil {
		return domain.Totals{}, err
	}
	debt, err := a.TotalDebt(records)
	if err != nil {
		return domain.Totals{}, err
	}

	return domain.Totals{
		TotalIncome:        income,
		TotalExpenses:      expenses,
		TotalSavings:       savings,
		TotalDebt:          debt,
		SavingsRate:        SavingsRate(income, expenses),
		NetCashFlow:        income - expenses,
		NetWorth:           savings - debt,
		OneOffExpenses:     exp.oneOff,
		ExpensesByCategory: exp.byCategory,
	}, nil
}

type expenseSums struct {
	recurring  float64
	oneOff     float64
	byCategory map[string]float64
}

// expenses parses each expense once. Recurring amounts feed the total and the
// per-category map; one-off amounts that fail to parse are dropped, even in
// strict mode.
func (a *Aggregator) expenses(records *domain.FinancialRecordSet) (expenseSums, error) {
	sums := expenseSums{byCategory: map[string]float64{}}
	if records == nil {
		return sums, nil
	}
	for i, e := range records.Expenses {
		v, err := a.amount(domain.CollectionExpenses, i, e.Amount)
		if e.Type != domain.ExpenseRecurring {
			if err == nil && !math.IsNaN(v) {
				sums.oneOff += v
			}
			continue
		}
		if err != nil {
			return expenseSums{}, err
		}
		sums.recurring += v
		category := string(e.Category)
		if category == "" {
			category = string(domain.CategoryOther)
		}
		sums.byCategory[category] += v
	}
	return sums, nil
}
