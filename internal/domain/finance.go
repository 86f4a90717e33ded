package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ============================================================
// Line items
// ============================================================

// Amount is the wire form of a line-item amount. Records loaded from storage
// or sent by older clients may carry amounts as JSON strings, so the raw text
// is kept as-is and parsed at the aggregation boundary.
type Amount string

// AmountOf builds an Amount from a float.
func AmountOf(v float64) Amount {
	return Amount(strconv.FormatFloat(v, 'f', -1, 64))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// MarshalJSON writes numeric amounts as numbers and anything else as a string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(a), 64); err == nil && json.Valid([]byte(a)) {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

// IncomeType classifies an income source.
type IncomeType string

const (
	IncomePrimary IncomeType = "primary"
	IncomeSide    IncomeType = "side"
	IncomePassive IncomeType = "passive"
	IncomeOneOff  IncomeType = "one-off"
	IncomeOther   IncomeType = "other"
)

// Valid reports whether t is a known income type.
func (t IncomeType) Valid() bool {
	switch t {
	case IncomePrimary, IncomeSide, IncomePassive, IncomeOneOff, IncomeOther:
		return true
	}
	return false
}

// ExpenseType separates recurring (monthly) expenses from one-off purchases.
type ExpenseType string

const (
	ExpenseRecurring ExpenseType = "recurring"
	ExpenseOneOff    ExpenseType = "one-off"
)

func (t ExpenseType) Valid() bool {
	return t == ExpenseRecurring || t == ExpenseOneOff
}

// ExpenseCategory groups expenses for itemized listings.
type ExpenseCategory string

const (
	CategoryHousing       ExpenseCategory = "housing"
	CategoryFood          ExpenseCategory = "food"
	CategoryTransport     ExpenseCategory = "transport"
	CategoryUtilities     ExpenseCategory = "utilities"
	CategoryEntertainment ExpenseCategory = "entertainment"
	CategoryOther         ExpenseCategory = "other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryHousing, CategoryFood, CategoryTransport, CategoryUtilities, CategoryEntertainment, CategoryOther:
		return true
	}
	return false
}

// SavingsType classifies a savings account.
type SavingsType string

const (
	SavingsEmergency  SavingsType = "emergency"
	SavingsInvestment SavingsType = "investment"
	SavingsGeneral    SavingsType = "general"
)

func (t SavingsType) Valid() bool {
	switch t {
	case SavingsEmergency, SavingsInvestment, SavingsGeneral:
		return true
	}
	return false
}

// IncomeSource is a monthly income stream.
type IncomeSource struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Amount Amount     `json:"amount"`
	Type   IncomeType `json:"type"`
}

// Expense is a spending line. Only recurring expenses count toward the monthly total.
type Expense struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   Amount          `json:"amount"`
	Type     ExpenseType     `json:"type"`
	Category ExpenseCategory `json:"category"`
}

// SavingsAccount is a balance held in savings.
type SavingsAccount struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Amount Amount      `json:"amount"`
	Type   SavingsType `json:"type"`
}

// Debt is an outstanding balance with its annual interest rate (percent).
type Debt struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Amount       Amount  `json:"amount"`
	InterestRate float64 `json:"interestRate"`
}

// FinancialRecordSet is everything a user tracks, in one currency.
// Currency holds the display symbol chosen by the user (e.g. "$", "€").
type FinancialRecordSet struct {
	IncomeSources []IncomeSource   `json:"incomeSources"`
	Expenses      []Expense        `json:"expenses"`
	Savings       []SavingsAccount `json:"savings"`
	Debts         []Debt           `json:"debts"`
	Currency      string           `json:"currency"`
}

// Collection names used by the item endpoints.
const (
	CollectionIncome   = "incomeSources"
	CollectionExpenses = "expenses"
	CollectionSavings  = "savings"
	CollectionDebts    = "debts"
)

// ============================================================
// Derived values
// ============================================================

// PercentileBreakpoint is one row of a reference table.
type PercentileBreakpoint struct {
	Breakpoint float64 `json:"breakpoint"`
	Percentile float64 `json:"percentile"`
}

// Totals is the aggregated view of a record set.
type Totals struct {
	TotalIncome        float64            `json:"totalIncome"`
	TotalExpenses      float64            `json:"totalExpenses"`
	TotalSavings       float64            `json:"totalSavings"`
	TotalDebt          float64            `json:"totalDebt"`
	SavingsRate        float64            `json:"savingsRate"`
	NetCashFlow        float64            `json:"netCashFlow"`
	NetWorth           float64            `json:"netWorth"`
	OneOffExpenses     float64            `json:"oneOffExpenses"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
}

// Rating is the label and color shown next to a percentile.
type Rating struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// PercentileResult is one comparison against a reference population.
type PercentileResult struct {
	Kind       string  `json:"kind"`
	Value      float64 `json:"value"`
	Percentile float64 `json:"percentile"`
	Rating
}

// FinancialReport combines totals and the three percentile comparisons.
type FinancialReport struct {
	Currency     string            `json:"currency"`
	CurrencyCode string            `json:"currencyCode"`
	Totals       Totals            `json:"totals"`
	TotalsUSD    USDTotals         `json:"totalsUsd"`
	Formatted    map[string]string `json:"formatted"`
	Income       PercentileResult  `json:"income"`
	Expenses     PercentileResult  `json:"expenses"`
	Savings      PercentileResult  `json:"savings"`
}

// USDTotals are the values fed to the percentile engine.
type USDTotals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// ReferenceTable is the wire form of a percentile table.
type ReferenceTable struct {
	Kind            string                 `json:"kind"`
	Ordering        string                 `json:"ordering"`
	FloorPercentile *float64               `json:"floorPercentile,omitempty"`
	Entries         []PercentileBreakpoint `json:"entries"`
}

// RatingResult is returned by the rating lookup.
type RatingResult struct {
	Percentile float64 `json:"percentile"`
	Rating
}
