package domain

import (
	"encoding/json"
	"math"
)

// Lenient aggregation can produce NaN or ±Inf, which encoding/json rejects.
// Non-finite values are written as null.

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (t Totals) MarshalJSON() ([]byte, error) {
	byCategory := make(map[string]*float64, len(t.ExpensesByCategory))
	for k, v := range t.ExpensesByCategory {
		byCategory[k] = finite(v)
	}
	return json.Marshal(struct {
		TotalIncome        *float64            `json:"totalIncome"`
		TotalExpenses      *float64            `json:"totalExpenses"`
		TotalSavings       *float64            `json:"totalSavings"`
		TotalDebt          *float64            `json:"totalDebt"`
		SavingsRate        *float64            `json:"savingsRate"`
		NetCashFlow        *float64            `json:"netCashFlow"`
		NetWorth           *float64            `json:"netWorth"`
		OneOffExpenses     *float64            `json:"oneOffExpenses"`
		ExpensesByCategory map[string]*float64 `json:"expensesByCategory"`
	}{
		TotalIncome:        finite(t.TotalIncome),
		TotalExpenses:      finite(t.TotalExpenses),
		TotalSavings:       finite(t.TotalSavings),
		TotalDebt:          finite(t.TotalDebt),
		SavingsRate:        finite(t.SavingsRate),
		NetCashFlow:        finite(t.NetCashFlow),
		NetWorth:           finite(t.NetWorth),
		OneOffExpenses:     finite(t.OneOffExpenses),
		ExpensesByCategory: byCategory,
	})
}

func (u USDTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Income   *float64 `json:"income"`
		Expenses *float64 `json:"expenses"`
	}{finite(u.Income), finite(u.Expenses)})
}

func (p PercentileResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string   `json:"kind"`
		Value      *float64 `json:"value"`
		Percentile *float64 `json:"percentile"`
		Label      string   `json:"label"`
		Color      string   `json:"color"`
	}{p.Kind, finite(p.Value), finite(p.Percentile), p.Label, p.Color})
}

func (r RatingResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Percentile *float64 `json:"percentile"`
		Label      string   `json:"label"`
		Color      string   `json:"color"`
	}{finite(r.Percentile), r.Label, r.Color})
}
