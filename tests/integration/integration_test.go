package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/handler"
	"github.com/lifecompass/finance-bfa-go/internal/infra/cache"
	"github.com/lifecompass/finance-bfa-go/internal/infra/client"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"
	"github.com/lifecompass/finance-bfa-go/internal/infra/supabase"
	"github.com/lifecompass/finance-bfa-go/internal/port"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

// fakePostgREST keeps financial_records rows in memory, keyed by user_id.
type fakePostgREST struct {
	mu   sync.Mutex
	rows map[string]json.RawMessage
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rest/v1/financial_records" {
		http.NotFound(w, r)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		userID := strings.TrimPrefix(r.URL.Query().Get("user_id"), "eq.")
		w.Header().Set("Content-Type", "application/json")
		row, ok := f.rows[userID]
		if !ok {
			w.Write([]byte("[]"))
			return
		}
		w.Write([]byte("["))
		w.Write(row)
		w.Write([]byte("]"))
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var row struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(body, &row); err != nil || row.UserID == "" {
			http.Error(w, `{"message":"bad row"}`, http.StatusBadRequest)
			return
		}
		f.rows[row.UserID] = body
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type stack struct {
	router http.Handler
	auth   *service.AuthService
}

func newStack(t *testing.T, ratesURL, supabaseURL string) *stack {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	rates := client.NewJSONRatesClient(httpClient, ratesURL, "$.rates", resilience.NewCircuitBreaker("rates-int", logger), cfg)
	rateCache := cache.New[*domain.ExchangeRates](time.Hour)
	t.Cleanup(rateCache.Stop)
	currencySvc := service.NewCurrencyService(rates, rateCache, metrics, logger)

	records := supabase.NewClient(httpClient, supabaseURL, "service-key", resilience.NewCircuitBreaker("supabase-int", logger), cfg, logger)
	financeSvc := service.NewFinanceService(records, currencySvc, finance.NewEngine(), finance.Strict, metrics, logger)

	auth := service.NewAuthService("integration-secret", "lifecompass", time.Hour)
	checks := map[string]port.Pinger{"supabase": records}

	return &stack{
		router: handler.NewRouter(financeSvc, currencySvc, auth, checks, metrics, logger),
		auth:   auth,
	}
}

func (s *stack) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func ratesServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.5,"GBP":0.25,"JPY":150}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestIntegration_FullFlow stores a user's records through Supabase and reads
// the report back in euros with live rates.
func TestIntegration_FullFlow(t *testing.T) {
	rates := ratesServer(t)
	pg := httptest.NewServer(&fakePostgREST{rows: map[string]json.RawMessage{}})
	defer pg.Close()

	s := newStack(t, rates.URL, pg.URL)
	token, err := s.auth.IssueAccessToken("user-int-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	// --- Empty record set for a new user ---
	rec := s.do(t, http.MethodGet, "/v1/users/user-int-1/records", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get records: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var empty domain.FinancialRecordSet
	json.Unmarshal(rec.Body.Bytes(), &empty)
	if empty.Currency != "$" || len(empty.IncomeSources) != 0 {
		t.Errorf("expected empty USD record set, got %+v", empty)
	}

	// --- Build up records item by item ---
	if rec := s.do(t, http.MethodPut, "/v1/users/user-int-1/currency", map[string]string{"currency": "EUR"}, token); rec.Code != http.StatusOK {
		t.Fatalf("set currency: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	items := []struct {
		collection string
		body       map[string]any
	}{
		{"incomeSources", map[string]any{"name": "Salary", "amount": 4000, "type": "primary"}},
		{"incomeSources", map[string]any{"name": "Tutoring", "amount": "500", "type": "side"}},
		{"expenses", map[string]any{"name": "Rent", "amount": 1200, "type": "recurring", "category": "housing"}},
		{"expenses", map[string]any{"name": "Laptop", "amount": 2000, "type": "one-off", "category": "other"}},
		{"savings", map[string]any{"name": "Rainy day", "amount": 3000, "type": "emergency"}},
		{"debts", map[string]any{"name": "Car", "amount": 1000, "interestRate": 4.5}},
	}
	var rentID string
	for _, it := range items {
		rec := s.do(t, http.MethodPost, "/v1/users/user-int-1/"+it.collection, it.body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %s: expected 201, got %d: %s", it.collection, rec.Code, rec.Body.String())
		}
		var created domain.SuccessResponse
		json.Unmarshal(rec.Body.Bytes(), &created)
		if created.ID == "" {
			t.Fatalf("add %s: expected an id", it.collection)
		}
		if it.body["name"] == "Rent" {
			rentID = created.ID
		}
	}

	rent := map[string]any{"name": "Rent", "amount": 1300, "type": "recurring", "category": "housing"}
	if rec := s.do(t, http.MethodPut, "/v1/users/user-int-1/expenses/"+rentID, rent, token); rec.Code != http.StatusOK {
		t.Fatalf("update rent: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// --- Report ---
	rec = s.do(t, http.MethodGet, "/v1/users/user-int-1/report", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report domain.FinancialReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}

	if report.Currency != "€" || report.CurrencyCode != "EUR" {
		t.Errorf("expected EUR report, got %q/%q", report.Currency, report.CurrencyCode)
	}
	if report.Totals.TotalIncome != 4500 || report.Totals.TotalExpenses != 1300 {
		t.Errorf("unexpected native totals: %+v", report.Totals)
	}
	if report.Totals.OneOffExpenses != 2000 || report.Totals.NetWorth != 2000 {
		t.Errorf("unexpected one-off/net worth: %+v", report.Totals)
	}
	if report.TotalsUSD.Income != 9000 || report.TotalsUSD.Expenses != 2600 {
		t.Errorf("expected USD totals 9000/2600, got %+v", report.TotalsUSD)
	}
	want, _ := finance.NewEngine().Percentile(finance.KindIncome, 9000)
	if report.Income.Percentile != want {
		t.Errorf("expected income percentile %v, got %v", want, report.Income.Percentile)
	}
	if report.Income.Label == "" || report.Income.Color == "" {
		t.Errorf("expected income rating, got %+v", report.Income)
	}

	// --- Records survive in the store ---
	rec = s.do(t, http.MethodGet, "/v1/users/user-int-1/records", nil, token)
	var stored domain.FinancialRecordSet
	json.Unmarshal(rec.Body.Bytes(), &stored)
	if len(stored.IncomeSources) != 2 || len(stored.Expenses) != 2 || stored.Currency != "€" {
		t.Errorf("unexpected stored records: %+v", stored)
	}

	// --- Another user's token is refused ---
	other, _ := s.auth.IssueAccessToken("user-int-2")
	if rec := s.do(t, http.MethodGet, "/v1/users/user-int-1/report", nil, other); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another user's token, got %d", rec.Code)
	}

	// --- Health reports the store ---
	rec = s.do(t, http.MethodGet, "/readyz", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestIntegration_RatesFallback checks that a failing rates API degrades to
// the static table instead of failing requests.
func TestIntegration_RatesFallback(t *testing.T) {
	var calls int
	var mu sync.Mutex
	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer rates.Close()
	pg := httptest.NewServer(&fakePostgREST{rows: map[string]json.RawMessage{}})
	defer pg.Close()

	s := newStack(t, rates.URL, pg.URL)

	rec := s.do(t, http.MethodGet, "/v1/currencies/rates", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snapshot domain.ExchangeRates
	json.Unmarshal(rec.Body.Bytes(), &snapshot)
	if snapshot.Source != domain.RateSourceFallback {
		t.Errorf("expected fallback source, got %q", snapshot.Source)
	}
	if snapshot.Rates["USD"] != 1 || snapshot.Rates["EUR"] == 0 {
		t.Errorf("unexpected fallback rates: %v", snapshot.Rates)
	}

	mu.Lock()
	got := calls
	mu.Unlock()
	if got < 2 {
		t.Errorf("expected the rates API to be retried, got %d calls", got)
	}

	body := map[string]any{
		"incomeSources": []map[string]any{{"name": "Salary", "amount": 1000, "type": "primary"}},
		"currency":      "€",
	}
	rec = s.do(t, http.MethodPost, "/v1/finance/report", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200 on fallback rates, got %d: %s", rec.Code, rec.Body.String())
	}
	var report domain.FinancialReport
	json.Unmarshal(rec.Body.Bytes(), &report)
	if report.TotalsUSD.Income <= 0 {
		t.Errorf("expected a converted income, got %v", report.TotalsUSD.Income)
	}
}

// TestIntegration_LiveRatesCached checks that the second lookup is served from cache.
func TestIntegration_LiveRatesCached(t *testing.T) {
	rates := ratesServer(t)
	pg := httptest.NewServer(&fakePostgREST{rows: map[string]json.RawMessage{}})
	defer pg.Close()

	s := newStack(t, rates.URL, pg.URL)

	sources := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/v1/currencies/rates", nil, "")
		var snapshot domain.ExchangeRates
		json.Unmarshal(rec.Body.Bytes(), &snapshot)
		sources = append(sources, snapshot.Source)
	}
	if sources[0] != domain.RateSourceLive || sources[1] != domain.RateSourceCache {
		t.Errorf("expected live then cache, got %v", sources)
	}

	rec := s.do(t, http.MethodGet, "/v1/currencies/convert?amount=100&from=EUR&to=JPY", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("convert: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var conv domain.ConversionResult
	json.Unmarshal(rec.Body.Bytes(), &conv)
	if conv.Result != 30000 {
		t.Errorf("expected 100 EUR = 30000 JPY, got %v", conv.Result)
	}
}
