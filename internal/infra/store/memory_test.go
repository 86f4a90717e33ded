package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/infra/store"
	"go.uber.org/zap"
)

func TestMemory_LoadMissing(t *testing.T) {
	m := store.NewMemory()

	_, err := m.Load(context.Background(), "nobody")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_SaveAndLoadAreCopies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	records := &domain.FinancialRecordSet{
		IncomeSources: []domain.IncomeSource{{ID: "i1", Name: "Salary", Amount: "5000", Type: domain.IncomePrimary}},
		Currency:      "£",
	}
	if err := m.Save(ctx, "u1", records); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	records.IncomeSources[0].Amount = "1"
	loaded, err := m.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if loaded.IncomeSources[0].Amount != "5000" {
		t.Errorf("store shared memory with caller on save: %q", loaded.IncomeSources[0].Amount)
	}

	loaded.IncomeSources[0].Amount = "2"
	again, _ := m.Load(ctx, "u1")
	if again.IncomeSources[0].Amount != "5000" {
		t.Errorf("store shared memory with caller on load: %q", again.IncomeSources[0].Amount)
	}
	if again.Currency != "£" {
		t.Errorf("expected £, got %q", again.Currency)
	}
}

// TestPostgres_RoundTrip runs only when TEST_DATABASE_URL points at a live database.
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := store.OpenPostgres(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	pg := store.NewPostgres(db, zap.NewNop())
	if err := pg.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	records := &domain.FinancialRecordSet{
		Expenses: []domain.Expense{{ID: "e1", Name: "Rent", Amount: "1500", Type: domain.ExpenseRecurring, Category: domain.CategoryHousing}},
		Currency: "$",
	}
	if err := pg.Save(ctx, "pg-test-user", records); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := pg.Load(ctx, "pg-test-user")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Expenses) != 1 || loaded.Expenses[0].Amount != "1500" {
		t.Errorf("unexpected expenses: %+v", loaded.Expenses)
	}

	_, err = pg.Load(ctx, "pg-missing-user")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
