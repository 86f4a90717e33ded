package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/port"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

const probeTimeout = 2 * time.Second

// NewRouter creates the HTTP router with all routes and middleware.
// A nil authSvc leaves the /v1/users routes unauthenticated. checks are the
// dependencies probed by /healthz and /readyz, keyed by display name.
func NewRouter(
	financeSvc *service.FinanceService,
	currencySvc *service.CurrencyService,
	authSvc *service.AuthService,
	checks map[string]port.Pinger,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(checks))
	r.Get("/readyz", readyzHandler(checks, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/engine", engineMetricsHandler(metrics))

		// Stateless computation
		r.Post("/finance/aggregate", aggregateHandler(financeSvc, logger))
		r.Post("/finance/report", reportHandler(financeSvc, logger))
		r.Get("/percentiles/{kind}", percentileHandler(financeSvc, logger))
		r.Get("/percentiles/{kind}/table", tableHandler(financeSvc, logger))
		r.Get("/ratings", ratingHandler(logger))

		// Currencies
		r.Get("/currencies", listCurrenciesHandler())
		r.Get("/currencies/rates", ratesHandler(currencySvc))
		r.Get("/currencies/convert", convertHandler(currencySvc, logger))
		r.Get("/currencies/format", formatHandler(currencySvc, logger))

		// Stored records
		r.Route("/users/{userId}", func(r chi.Router) {
			if authSvc != nil {
				r.Use(JWTAuthMiddleware(authSvc, logger))
			}
			r.Get("/records", getRecordsHandler(financeSvc, logger))
			r.Put("/records", putRecordsHandler(financeSvc, logger))
			r.Get("/report", userReportHandler(financeSvc, logger))
			r.Put("/currency", setCurrencyHandler(financeSvc, logger))
			r.Post("/{collection}", addItemHandler(financeSvc, logger))
			r.Put("/{collection}/{itemId}", updateItemHandler(financeSvc, logger))
			r.Delete("/{collection}/{itemId}", deleteItemHandler(financeSvc, logger))
		})
	})

	return r
}

// probe pings every check and reports each one's status and latency.
func probe(ctx context.Context, checks map[string]port.Pinger) []domain.ServiceHealth {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "finance-bfa", Status: "healthy", LastChecked: now},
	}
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		err := checks[name].Ping(pctx)
		cancel()

		status := "healthy"
		if err != nil {
			status = "unhealthy"
		}
		services = append(services, domain.ServiceHealth{
			Name:        name,
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return services
}

func healthzHandler(checks map[string]port.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := probe(r.Context(), checks)

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(checks map[string]port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, s := range probe(r.Context(), checks) {
			if s.Status != "healthy" {
				logger.Warn("not ready", zap.String("dependency", s.Name))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "dependency": s.Name})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	tables := []string{string(finance.KindIncome), string(finance.KindExpense), string(finance.KindSavings)}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot(tables, finance.Labels()))
	}
}
