package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/infra/store"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

// mockConverter uses fixed units-per-USD rates keyed by symbol.
type mockConverter struct {
	rates map[string]float64
	err   error
}

func (m *mockConverter) ConvertToUSD(_ context.Context, amount float64, symbol string) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	r, ok := m.rates[symbol]
	if !ok {
		return 0, &domain.ErrUnsupportedCurrency{Currency: symbol}
	}
	return amount / r, nil
}

func (m *mockConverter) ConvertFromUSD(_ context.Context, amount float64, symbol string) (float64, error) {
	r, ok := m.rates[symbol]
	if !ok {
		return 0, &domain.ErrUnsupportedCurrency{Currency: symbol}
	}
	return amount * r, nil
}

func (m *mockConverter) FormatCurrency(amount float64, symbol string) string {
	return service.FormatAmount(amount, symbol)
}

type failingStore struct{ err error }

func (f *failingStore) Load(context.Context, string) (*domain.FinancialRecordSet, error) {
	return nil, f.err
}

func (f *failingStore) Save(context.Context, string, *domain.FinancialRecordSet) error {
	return f.err
}

func newFinanceService(mode finance.ParseMode, conv *mockConverter) (*service.FinanceService, *observability.Metrics) {
	if conv == nil {
		conv = &mockConverter{rates: map[string]float64{"$": 1, "€": 0.5}}
	}
	m := observability.NewMetrics()
	return service.NewFinanceService(store.NewMemory(), conv, finance.NewEngine(), mode, m, zap.NewNop()), m
}

func scenario(currency string) *domain.FinancialRecordSet {
	return &domain.FinancialRecordSet{
		IncomeSources: []domain.IncomeSource{
			{Name: "Salary", Amount: "5000", Type: domain.IncomePrimary},
			{Name: "Freelance", Amount: "1200", Type: domain.IncomeSide},
		},
		Expenses: []domain.Expense{
			{Name: "Rent", Amount: "1500", Type: domain.ExpenseRecurring, Category: domain.CategoryHousing},
			{Name: "Food", Amount: "600", Type: domain.ExpenseRecurring, Category: domain.CategoryFood},
			{Name: "Trip", Amount: "9999", Type: domain.ExpenseOneOff, Category: domain.CategoryEntertainment},
		},
		Currency: currency,
	}
}

// --- Tests ---

func TestEvaluate_USD(t *testing.T) {
	svc, m := newFinanceService(finance.Strict, nil)

	report, err := svc.Evaluate(context.Background(), scenario("$"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Totals.TotalIncome != 6200 || report.Totals.TotalExpenses != 2100 {
		t.Errorf("unexpected totals: %+v", report.Totals)
	}
	if report.CurrencyCode != "USD" {
		t.Errorf("expected USD, got %s", report.CurrencyCode)
	}

	if want := finance.IncomePercentile(6200); report.Income.Percentile != want {
		t.Errorf("income percentile: expected %v, got %v", want, report.Income.Percentile)
	}
	if want := finance.ExpensePercentile(2100); report.Expenses.Percentile != want {
		t.Errorf("expense percentile: expected %v, got %v", want, report.Expenses.Percentile)
	}
	if want := finance.SavingsPercentile(report.Totals.SavingsRate); report.Savings.Percentile != want {
		t.Errorf("savings percentile: expected %v, got %v", want, report.Savings.Percentile)
	}
	if report.Income.Label != finance.RatingFor(report.Income.Percentile) {
		t.Errorf("income label mismatch: %+v", report.Income)
	}
	if report.Savings.Color != finance.ColorFor(report.Savings.Percentile) {
		t.Errorf("savings color mismatch: %+v", report.Savings)
	}
	if report.Formatted["totalIncome"] != "$6,200.00" {
		t.Errorf("expected $6,200.00, got %q", report.Formatted["totalIncome"])
	}

	snap := m.GetEngineSnapshot([]string{"income", "expense", "savings"}, nil)
	for table, n := range snap.Lookups {
		if n != 1 {
			t.Errorf("expected one %s lookup, got %d", table, n)
		}
	}
}

func TestEvaluate_ConvertsToUSDBeforeRanking(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)

	report, err := svc.Evaluate(context.Background(), scenario("€"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.TotalsUSD.Income != 12400 || report.TotalsUSD.Expenses != 4200 {
		t.Errorf("unexpected USD totals: %+v", report.TotalsUSD)
	}
	if want := finance.IncomePercentile(12400); report.Income.Percentile != want {
		t.Errorf("expected income ranked in USD: want %v, got %v", want, report.Income.Percentile)
	}
	if report.Totals.TotalIncome != 6200 {
		t.Errorf("native totals must stay in the record currency, got %v", report.Totals.TotalIncome)
	}

	usdReport, _ := svc.Evaluate(context.Background(), scenario("$"))
	if report.Savings.Percentile != usdReport.Savings.Percentile {
		t.Error("savings rate ranking must not depend on currency")
	}
}

func TestEvaluate_UnsupportedCurrency(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)

	_, err := svc.Evaluate(context.Background(), scenario("XYZ"))
	var unsupported *domain.ErrUnsupportedCurrency
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestEvaluate_ConversionFailure(t *testing.T) {
	conv := &mockConverter{rates: map[string]float64{"€": 0.5}, err: &domain.ErrExternalService{Service: "rates", Err: errors.New("down")}}
	svc, _ := newFinanceService(finance.Strict, conv)

	_, err := svc.Evaluate(context.Background(), scenario("€"))
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestEvaluate_StrictRejectsMalformed(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	records := scenario("$")
	records.IncomeSources[0].Amount = "abc"

	_, err := svc.Evaluate(context.Background(), records)
	var valErr *domain.ErrValidation
	if !errors.As(err, &valErr) || valErr.Field != "incomeSources[0].amount" {
		t.Fatalf("expected validation error on incomeSources[0].amount, got %v", err)
	}
}

func TestEvaluate_LenientPropagatesNaN(t *testing.T) {
	svc, _ := newFinanceService(finance.Lenient, nil)
	records := scenario("$")
	records.IncomeSources[0].Amount = "abc"

	report, err := svc.Evaluate(context.Background(), records)
	if err != nil {
		t.Fatalf("lenient mode must not fail, got %v", err)
	}
	if !math.IsNaN(report.Totals.TotalIncome) || !math.IsNaN(report.Income.Percentile) {
		t.Errorf("expected NaN income and percentile, got %v / %v", report.Totals.TotalIncome, report.Income.Percentile)
	}
	if report.Income.Label != "Critical" {
		t.Errorf("expected Critical for NaN, got %q", report.Income.Label)
	}
	if report.Expenses.Percentile != finance.ExpensePercentile(2100) {
		t.Errorf("expenses must be unaffected, got %v", report.Expenses.Percentile)
	}
}

func TestEvaluate_CancelledContext(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Evaluate(ctx, scenario("$")); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRank(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)

	res, err := svc.Rank(finance.KindIncome, 3518)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Percentile != 50 || res.Label != "Average" || res.Kind != "income" {
		t.Errorf("unexpected result: %+v", res)
	}

	if _, err := svc.Rank(finance.TableKind("height"), 1); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestRecords_EmptyDefault(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)

	records, err := svc.GetRecords(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records.Currency != "$" || len(records.IncomeSources) != 0 || records.Expenses == nil {
		t.Errorf("expected empty USD set, got %+v", records)
	}
}

func TestRecords_StoreFailure(t *testing.T) {
	m := observability.NewMetrics()
	svc := service.NewFinanceService(&failingStore{err: &domain.ErrExternalService{Service: "postgres", Err: errors.New("down")}},
		&mockConverter{}, finance.NewEngine(), finance.Strict, m, zap.NewNop())

	_, err := svc.GetRecords(context.Background(), "u1")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestRecords_ItemLifecycle(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx := context.Background()

	id, err := svc.AddItem(ctx, "u1", domain.CollectionExpenses, []byte(`{"name":"Rent","amount":1500,"type":"recurring","category":"housing"}`))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated ID")
	}

	if _, err := svc.AddItem(ctx, "u1", domain.CollectionIncome, []byte(`{"id":"inc-1","name":"Salary","amount":"4000","type":"primary"}`)); err != nil {
		t.Fatalf("add income: %v", err)
	}

	if err := svc.UpdateItem(ctx, "u1", domain.CollectionExpenses, id, []byte(`{"name":"Rent","amount":1600,"type":"recurring"}`)); err != nil {
		t.Fatalf("update: %v", err)
	}

	records, _ := svc.GetRecords(ctx, "u1")
	if len(records.Expenses) != 1 || records.Expenses[0].Amount != "1600" || records.Expenses[0].ID != id {
		t.Errorf("unexpected expenses after update: %+v", records.Expenses)
	}
	if records.Expenses[0].Category != domain.CategoryOther {
		t.Errorf("expected missing category to default to other, got %q", records.Expenses[0].Category)
	}

	report, err := svc.Report(ctx, "u1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Totals.TotalIncome != 4000 || report.Totals.TotalExpenses != 1600 {
		t.Errorf("unexpected report totals: %+v", report.Totals)
	}

	if err := svc.DeleteItem(ctx, "u1", domain.CollectionExpenses, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, _ = svc.GetRecords(ctx, "u1")
	if len(records.Expenses) != 0 {
		t.Errorf("expected no expenses after delete, got %+v", records.Expenses)
	}

	err = svc.DeleteItem(ctx, "u1", domain.CollectionExpenses, id)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRecords_AddValidation(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		collection string
		body       string
		field      string
	}{
		{"missing name", domain.CollectionIncome, `{"amount":10,"type":"primary"}`, "incomeSources.name"},
		{"zero amount", domain.CollectionIncome, `{"name":"x","amount":0,"type":"primary"}`, "incomeSources.amount"},
		{"text amount", domain.CollectionSavings, `{"name":"x","amount":"lots","type":"general"}`, "savings.amount"},
		{"bad income type", domain.CollectionIncome, `{"name":"x","amount":1,"type":"salary"}`, "incomeSources.type"},
		{"bad category", domain.CollectionExpenses, `{"name":"x","amount":1,"type":"recurring","category":"travel"}`, "expenses.category"},
		{"negative interest", domain.CollectionDebts, `{"name":"x","amount":1,"interestRate":-1}`, "debts.interestRate"},
		{"bad savings type", domain.CollectionSavings, `{"name":"x","amount":1,"type":"crypto"}`, "savings.type"},
		{"malformed json", domain.CollectionDebts, `{"name":`, "body"},
		{"unknown collection", "pets", `{}`, "collection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "u1", tt.collection, []byte(tt.body))
			var valErr *domain.ErrValidation
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if valErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, valErr.Field)
			}
		})
	}
}

func TestRecords_DuplicateID(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx := context.Background()
	body := []byte(`{"id":"d1","name":"Card","amount":300,"interestRate":19.9}`)

	if _, err := svc.AddItem(ctx, "u1", domain.CollectionDebts, body); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddItem(ctx, "u1", domain.CollectionDebts, body); err == nil {
		t.Fatal("expected duplicate ID to be rejected")
	}
}

func TestRecords_SaveRecordsFillsIDs(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx := context.Background()

	records := scenario("€")
	if err := svc.SaveRecords(ctx, "u1", records); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, _ := svc.GetRecords(ctx, "u1")
	for _, it := range loaded.IncomeSources {
		if it.ID == "" {
			t.Error("expected generated income IDs")
		}
	}
	if loaded.Currency != "€" {
		t.Errorf("expected €, got %q", loaded.Currency)
	}

	bad := scenario("$")
	bad.Expenses[0].Amount = "-1"
	if err := svc.SaveRecords(ctx, "u1", bad); err == nil {
		t.Error("expected negative amount to be rejected")
	}
	if err := svc.SaveRecords(ctx, "u1", scenario("XYZ")); err == nil {
		t.Error("expected unsupported currency to be rejected")
	}
}

func TestRecords_SetCurrency(t *testing.T) {
	svc, _ := newFinanceService(finance.Strict, nil)
	ctx := context.Background()

	cur, err := svc.SetCurrency(ctx, "u1", "eur")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cur.Symbol != "€" {
		t.Errorf("expected €, got %q", cur.Symbol)
	}
	records, _ := svc.GetRecords(ctx, "u1")
	if records.Currency != "€" {
		t.Errorf("expected stored €, got %q", records.Currency)
	}

	_, err = svc.SetCurrency(ctx, "u1", "DOGE")
	var unsupported *domain.ErrUnsupportedCurrency
	if !errors.As(err, &unsupported) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
}
