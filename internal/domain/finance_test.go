package domain_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	var item domain.IncomeSource
	body := `{"id":"1","name":"Salary","amount":5000.25,"type":"primary"}`
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.Amount != "5000.25" {
		t.Errorf("expected 5000.25, got %q", item.Amount)
	}

	body = `{"amount":"1200"}`
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.Amount != "1200" {
		t.Errorf("expected string amount to be kept, got %q", item.Amount)
	}

	body = `{"amount":null}`
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.Amount != "" {
		t.Errorf("expected empty amount for null, got %q", item.Amount)
	}

	if err := json.Unmarshal([]byte(`{"amount":true}`), &item); err == nil {
		t.Error("expected error for boolean amount")
	}
}

func TestAmount_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(domain.Expense{Amount: "99.5", Type: domain.ExpenseRecurring})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(out), `"amount":99.5`) {
		t.Errorf("expected numeric amount, got %s", out)
	}

	out, _ = json.Marshal(domain.Expense{Amount: "abc"})
	if !strings.Contains(string(out), `"amount":"abc"`) {
		t.Errorf("expected quoted amount, got %s", out)
	}
}

func TestTotals_MarshalNonFinite(t *testing.T) {
	totals := domain.Totals{
		TotalIncome:        math.NaN(),
		TotalExpenses:      100,
		SavingsRate:        math.Inf(1),
		ExpensesByCategory: map[string]float64{"food": math.NaN()},
	}
	out, err := json.Marshal(totals)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s := string(out)
	for _, want := range []string{`"totalIncome":null`, `"totalExpenses":100`, `"savingsRate":null`, `"food":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestPercentileResult_MarshalFlattensRating(t *testing.T) {
	res := domain.PercentileResult{
		Kind:       "income",
		Value:      3518,
		Percentile: 50,
		Rating:     domain.Rating{Label: "Average", Color: "#FDD835"},
	}
	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `{"kind":"income","value":3518,"percentile":50,"label":"Average","color":"#FDD835"}`
	if string(out) != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}

func TestEnumsValid(t *testing.T) {
	if !domain.IncomeOneOff.Valid() || domain.IncomeType("salary").Valid() {
		t.Error("income type validation mismatch")
	}
	if !domain.ExpenseOneOff.Valid() || domain.ExpenseType("weekly").Valid() {
		t.Error("expense type validation mismatch")
	}
	if !domain.CategoryUtilities.Valid() || domain.ExpenseCategory("travel").Valid() {
		t.Error("category validation mismatch")
	}
	if !domain.SavingsGeneral.Valid() || domain.SavingsType("crypto").Valid() {
		t.Error("savings type validation mismatch")
	}
}
