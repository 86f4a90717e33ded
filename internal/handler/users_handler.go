package handler

import (
	"net/http"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// userID prefers the authenticated subject and falls back to the URL when
// auth is disabled.
func userID(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return chi.URLParam(r, "userId")
}

// ============================================================
// GET|PUT /v1/users/{userId}/records
// ============================================================

func getRecordsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/records")
		defer span.End()

		records, err := svc.GetRecords(ctx, userID(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func putRecordsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}/records")
		defer span.End()

		var records domain.FinancialRecordSet
		if err := decodeJSON(w, r, &records); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		id := userID(r)
		if err := svc.SaveRecords(ctx, id, &records); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("records replaced", zap.String("user_id", id))
		writeJSON(w, http.StatusOK, &records)
	}
}

// ============================================================
// GET /v1/users/{userId}/report
// ============================================================

func userReportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/report")
		defer span.End()

		report, err := svc.Report(ctx, userID(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ============================================================
// PUT /v1/users/{userId}/currency
// ============================================================

type setCurrencyRequest struct {
	Currency string `json:"currency"`
}

func setCurrencyHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}/currency")
		defer span.End()

		var req setCurrencyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		cur, err := svc.SetCurrency(ctx, userID(r), req.Currency)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	}
}

// ============================================================
// POST       /v1/users/{userId}/{collection}
// PUT|DELETE /v1/users/{userId}/{collection}/{itemId}
// ============================================================

func addItemHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/{collection}")
		defer span.End()

		collection := chi.URLParam(r, "collection")
		span.SetAttributes(attribute.String("collection", collection))

		body, err := readBody(w, r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		id, err := svc.AddItem(ctx, userID(r), collection, body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, domain.SuccessResponse{Message: "created", ID: id})
	}
}

func updateItemHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}/{collection}/{itemId}")
		defer span.End()

		collection := chi.URLParam(r, "collection")
		itemID := chi.URLParam(r, "itemId")

		body, err := readBody(w, r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := svc.UpdateItem(ctx, userID(r), collection, itemID, body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "updated", ID: itemID})
	}
}

func deleteItemHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}/{collection}/{itemId}")
		defer span.End()

		itemID := chi.URLParam(r, "itemId")
		if err := svc.DeleteItem(ctx, userID(r), chi.URLParam(r, "collection"), itemID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "deleted", ID: itemID})
	}
}
