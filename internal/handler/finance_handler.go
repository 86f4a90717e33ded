package handler

import (
	"net/http"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// POST /v1/finance/aggregate
// ============================================================

func aggregateHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/finance/aggregate")
		defer span.End()

		var records domain.FinancialRecordSet
		if err := decodeJSON(w, r, &records); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		totals, err := svc.Aggregate(ctx, &records)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

// ============================================================
// POST /v1/finance/report
// ============================================================

func reportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/finance/report")
		defer span.End()

		var records domain.FinancialRecordSet
		if err := decodeJSON(w, r, &records); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.Evaluate(ctx, &records)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ============================================================
// GET /v1/percentiles/{kind}?value=x
// GET /v1/percentiles/{kind}/table
// ============================================================

func percentileHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/percentiles/{kind}")
		defer span.End()

		kind, err := finance.ParseTableKind(chi.URLParam(r, "kind"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		value, err := queryFloat(r, "value")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("percentile.table", string(kind)))

		result, err := svc.Rank(kind, value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func tableHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := finance.ParseTableKind(chi.URLParam(r, "kind"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		t, ok := svc.Engine().Table(kind)
		if !ok {
			handleServiceError(w, &domain.ErrNotFound{Resource: "table", ID: string(kind)}, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ReferenceTable{
			Kind:            string(t.Kind),
			Ordering:        t.Ordering.String(),
			FloorPercentile: t.FloorPercentile,
			Entries:         t.Entries,
		})
	}
}

// ============================================================
// GET /v1/ratings?percentile=p
// ============================================================

func ratingHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := queryFloat(r, "percentile")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.RatingResult{Percentile: p, Rating: finance.Rate(p)})
	}
}
