package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"
	"github.com/lifecompass/finance-bfa-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newClient(srv *httptest.Server, name string) *supabase.Client {
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	return supabase.NewClient(srv.Client(), srv.URL, "service-key", resilience.NewCircuitBreaker(name, zap.NewNop()), cfg, zap.NewNop())
}

func TestClient_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/rest/v1/financial_records" || r.URL.Query().Get("user_id") != "eq.user-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[{"user_id":"user-1","payload":{"incomeSources":[{"id":"i1","name":"Salary","amount":"5000","type":"primary"}],"expenses":[],"savings":[],"debts":[],"currency":"€"}}]`))
	}))
	defer srv.Close()

	records, err := newClient(srv, "sb-load").Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records.Currency != "€" {
		t.Errorf("expected €, got %q", records.Currency)
	}
	if len(records.IncomeSources) != 1 || records.IncomeSources[0].Amount != "5000" {
		t.Errorf("unexpected income sources: %+v", records.IncomeSources)
	}
}

func TestClient_LoadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newClient(srv, "sb-nf").Load(context.Background(), "ghost")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Save(t *testing.T) {
	var gotPrefer, gotQuery string
	var gotRow map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRow)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	records := &domain.FinancialRecordSet{Currency: "$", Debts: []domain.Debt{{ID: "d1", Name: "Card", Amount: "300", InterestRate: 19.9}}}
	if err := newClient(srv, "sb-save").Save(context.Background(), "user-1", records); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(gotPrefer, "resolution=merge-duplicates") {
		t.Errorf("expected upsert preference, got %q", gotPrefer)
	}
	if gotQuery != "on_conflict=user_id" {
		t.Errorf("expected on_conflict query, got %q", gotQuery)
	}
	if string(gotRow["user_id"]) != `"user-1"` {
		t.Errorf("unexpected user_id: %s", gotRow["user_id"])
	}
	if !strings.Contains(string(gotRow["payload"]), `"interestRate":19.9`) {
		t.Errorf("unexpected payload: %s", gotRow["payload"])
	}
}

func TestClient_SaveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newClient(srv, "sb-500").Save(context.Background(), "user-1", &domain.FinancialRecordSet{})
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
